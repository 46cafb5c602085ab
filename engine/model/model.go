package model

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-glb/common"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	id             string
	meshContainers []*MeshContainer
	allNodes       []*NodeContent
	rootNodes      []int
	materials      []MaterialEntry
	descriptions   []*MaterialDescription
	animations     map[string]*AnimationClip
	skins          []*SkinContent
	resources      []GPUResource
	boundingBox    common.BoundingBox
}

// Model defines the interface for an imported 3D model.
// A Model is the finished, renderer-agnostic import artifact: the node tree, the mesh containers,
// the material table, skins, animation clips and the global bounding box.
// It is produced by the loader after decoding a GLB file.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// ID retrieves the asset registry id, or "" if the model was not registered.
	//
	// Returns:
	//   - string: the registry id
	ID() string

	// SetID records the asset registry id.
	//
	// Parameters:
	//   - id: the registry id
	SetID(id string)

	// MeshContainers retrieves one container per mesh-bearing node, in scene traversal order.
	//
	// Returns:
	//   - []*MeshContainer: the mesh containers
	MeshContainers() []*MeshContainer

	// AllNodes retrieves the flat, index-addressable node array.
	// Nodes not reachable from the default scene are nil.
	//
	// Returns:
	//   - []*NodeContent: the nodes indexed by source node index
	AllNodes() []*NodeContent

	// Node retrieves a node by index.
	//
	// Parameters:
	//   - index: the source node index
	//
	// Returns:
	//   - *NodeContent: the node, or nil if out of range or unreachable
	Node(index int) *NodeContent

	// RootNodes retrieves the indices of the default scene's root nodes.
	//
	// Returns:
	//   - []int: the root node indices
	RootNodes() []int

	// Materials retrieves the material table as (name, registry id) pairs.
	//
	// Returns:
	//   - []MaterialEntry: the material entries, index-aligned with MaterialDescriptions
	Materials() []MaterialEntry

	// MaterialDescriptions retrieves the deduplicated material table.
	//
	// Returns:
	//   - []*MaterialDescription: the materials in first-use order
	MaterialDescriptions() []*MaterialDescription

	// SetMaterialID records the registry id of a material table entry.
	//
	// Parameters:
	//   - index: the material table index
	//   - id: the registry id
	SetMaterialID(index int, id string)

	// Animations retrieves the animation clips keyed by name.
	//
	// Returns:
	//   - map[string]*AnimationClip: the clips
	Animations() map[string]*AnimationClip

	// AnimationNames returns the clip names in sorted order.
	//
	// Returns:
	//   - []string: the clip names
	AnimationNames() []string

	// Skins retrieves the skins in source order.
	//
	// Returns:
	//   - []*SkinContent: the skins
	Skins() []*SkinContent

	// BoundingBox retrieves the global bounding box at bind pose.
	//
	// Returns:
	//   - common.BoundingBox: the box
	BoundingBox() common.BoundingBox

	// RefreshBoundingBox recomputes the global bounding box from every mesh container
	// transformed by its node's world matrix.
	RefreshBoundingBox()

	// Resources retrieves every GPU resource created for this model.
	//
	// Returns:
	//   - []GPUResource: the resources
	Resources() []GPUResource

	// Release frees every GPU resource created for this model.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the provided options applied.
// The global bounding box is computed after the options are applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		animations:  make(map[string]*AnimationClip),
		boundingBox: common.EmptyBoundingBox(),
	}
	for _, option := range options {
		option(m)
	}
	m.RefreshBoundingBox()
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) ID() string {
	return m.id
}

func (m *model) SetID(id string) {
	m.id = id
}

func (m *model) MeshContainers() []*MeshContainer {
	return m.meshContainers
}

func (m *model) AllNodes() []*NodeContent {
	return m.allNodes
}

func (m *model) Node(index int) *NodeContent {
	if index < 0 || index >= len(m.allNodes) {
		return nil
	}
	return m.allNodes[index]
}

func (m *model) RootNodes() []int {
	return m.rootNodes
}

func (m *model) Materials() []MaterialEntry {
	return m.materials
}

func (m *model) MaterialDescriptions() []*MaterialDescription {
	return m.descriptions
}

func (m *model) SetMaterialID(index int, id string) {
	if index < 0 || index >= len(m.materials) {
		return
	}
	m.materials[index].ID = id
}

func (m *model) Animations() map[string]*AnimationClip {
	return m.animations
}

func (m *model) AnimationNames() []string {
	names := make([]string, 0, len(m.animations))
	for name := range m.animations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *model) Skins() []*SkinContent {
	return m.skins
}

func (m *model) BoundingBox() common.BoundingBox {
	return m.boundingBox
}

func (m *model) RefreshBoundingBox() {
	bounds := common.EmptyBoundingBox()
	for _, node := range m.allNodes {
		if node == nil || node.Mesh == nil {
			continue
		}
		bounds = bounds.Union(node.Mesh.Bounds.Transform(node.WorldMatrix()))
	}
	m.boundingBox = bounds
}

func (m *model) Resources() []GPUResource {
	return m.resources
}

func (m *model) Release() {
	for _, r := range m.resources {
		r.Release()
	}
	m.resources = nil
}
