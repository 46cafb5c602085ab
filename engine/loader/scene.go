package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// node visit states for cycle detection.
const (
	nodeUnvisited = iota
	nodeVisiting
	nodeDone
)

// unsafeNameChars are replaced by MakeSafeName in addition to control characters.
const unsafeNameChars = `<>:"/\|?*.[]`

// MakeSafeName replaces characters that are invalid in file names, plus '.', '[' and ']', with '_'.
//
// Parameters:
//   - name: the source name
//
// Returns:
//   - string: the filename-safe name
func MakeSafeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(unsafeNameChars, r) {
			return '_'
		}
		return r
	}, name)
}

// readDefaultScene decodes the node tree of the default scene in post-order: a node is finalized
// only after all of its children. ctx is checked before each node.
//
// Returns:
//   - error: ErrNoDefaultScene, ErrCyclicNodeGraph, ErrInvalidReference, ctx.Err() or a mesh error
func (s *importSession) readDefaultScene(ctx context.Context) error {
	doc := s.parser.Document()
	if doc.Scene == nil {
		return ErrNoDefaultScene
	}
	sceneIndex := *doc.Scene
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return fmt.Errorf("scene %d: %w", sceneIndex, ErrInvalidReference)
	}

	s.nodes = make([]*model.NodeContent, len(doc.Nodes))
	s.visit = make([]int, len(doc.Nodes))

	for _, root := range doc.Scenes[sceneIndex].Nodes {
		if _, err := s.readNode(ctx, root); err != nil {
			return err
		}
		s.roots = append(s.roots, root)
	}
	return nil
}

// readNode builds node index after its children.
func (s *importSession) readNode(ctx context.Context, index int) (*model.NodeContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := s.parser.Document()
	if index < 0 || index >= len(doc.Nodes) {
		return nil, fmt.Errorf("node %d: %w", index, ErrInvalidReference)
	}
	switch s.visit[index] {
	case nodeVisiting:
		return nil, fmt.Errorf("node %d is its own ancestor: %w", index, ErrCyclicNodeGraph)
	case nodeDone:
		return nil, fmt.Errorf("node %d has more than one parent: %w", index, ErrCyclicNodeGraph)
	}
	s.visit[index] = nodeVisiting

	src := &doc.Nodes[index]
	children := make([]*model.NodeContent, 0, len(src.Children))
	for _, c := range src.Children {
		child, err := s.readNode(ctx, c)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	node := &model.NodeContent{
		Index:        index,
		Name:         MakeSafeName(common.Coalesce(src.Name, fmt.Sprintf("_Node_%d", index))),
		Children:     children,
		ChildIndices: src.Children,
	}
	node.Translation, node.Rotation, node.Scale = nodeTransform(src)
	for _, child := range children {
		child.Parent = node
	}

	if src.Skin != nil {
		if *src.Skin < 0 || *src.Skin >= len(s.skins) {
			return nil, fmt.Errorf("node %d: skin %d: %w", index, *src.Skin, ErrInvalidReference)
		}
		node.Skin = s.skins[*src.Skin]
	}

	if src.Mesh != nil {
		container, err := s.meshContainer(ctx, *src.Mesh, src)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", index, err)
		}
		container.Skin = node.Skin
		node.Mesh = container
		s.containers = append(s.containers, container)
	}

	s.nodes[index] = node
	s.visit[index] = nodeDone
	return node, nil
}

// nodeTransform returns the local TRS. A non-identity matrix takes precedence over TRS fields.
func nodeTransform(n *gltfNode) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if n.Matrix != nil {
		if m := common.MatrixFromSlice(n.Matrix[:]); !common.IsIdentity(m) {
			return common.DecomposeMatrix(m)
		}
	}

	t := mgl32.Vec3{}
	r := mgl32.QuatIdent()
	sc := mgl32.Vec3{1, 1, 1}
	if n.Translation != nil {
		t = mgl32.Vec3(*n.Translation)
	}
	if n.Rotation != nil {
		r = mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
	}
	if n.Scale != nil {
		sc = mgl32.Vec3(*n.Scale)
	}
	return t, r, sc
}

// meshContainer wraps the primitives of mesh index for one node. Primitives are built once per
// mesh index and shared by every node that references the mesh.
func (s *importSession) meshContainer(ctx context.Context, meshIndex int, node *gltfNode) (*model.MeshContainer, error) {
	doc := s.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d: %w", meshIndex, ErrInvalidReference)
	}
	mesh := &doc.Meshes[meshIndex]

	prims, ok := s.meshes[meshIndex]
	if !ok {
		prims = make([]*model.MeshPrimitive, 0, len(mesh.Primitives))
		for i := range mesh.Primitives {
			prim, err := s.readPrimitive(ctx, meshIndex, i)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, i, err)
			}
			prims = append(prims, prim)
		}
		s.meshes[meshIndex] = prims
	} else {
		s.logger.Debug("reusing mesh primitives", zap.Int("mesh", meshIndex))
	}

	c := &model.MeshContainer{
		Name:               MakeSafeName(common.Coalesce(mesh.Name, fmt.Sprintf("_Mesh_%d", meshIndex))),
		MeshIndex:          meshIndex,
		Primitives:         prims,
		MorphTargetWeights: mesh.Weights,
	}
	if len(node.Weights) > 0 {
		c.MorphTargetWeights = node.Weights
	}
	if len(mesh.Primitives) > 0 {
		c.MorphTargetCount = len(mesh.Primitives[0].Targets)
	}
	c.RefreshBoundingBox()
	return c, nil
}

// readPrimitive synthesizes the vertex streams and index buffer of one primitive, resolves its
// material and uploads its buffers.
func (s *importSession) readPrimitive(ctx context.Context, meshIndex, primIndex int) (*model.MeshPrimitive, error) {
	src := &s.parser.Document().Meshes[meshIndex].Primitives[primIndex]

	topo, err := topology(src.Mode)
	if err != nil {
		return nil, err
	}

	layout, err := buildVertexStreams(s.parser, src)
	if err != nil {
		return nil, err
	}
	prim := &model.MeshPrimitive{
		Streams:     layout.streams,
		Topology:    topo,
		VertexColor: layout.vertexColor,
		Bounds:      layout.bounds,
	}

	if prim.Indices, err = buildIndexBuffer(s.parser, src, prim.VertexCount(), topo, s.flipWinding); err != nil {
		return nil, err
	}

	if prim.MaterialIndex, err = s.materials.Resolve(ctx, src.Material, layout.vertexColor); err != nil {
		return nil, err
	}

	label := fmt.Sprintf("%s mesh %d primitive %d", s.name, meshIndex, primIndex)
	for i, stream := range prim.Streams {
		if len(stream.Data) == 0 {
			continue
		}
		if stream.Buffer, err = s.uploader.vertexBuffer(ctx, fmt.Sprintf("%s stream %d", label, i), stream); err != nil {
			return nil, fmt.Errorf("failed to upload vertex stream %d: %w", i, err)
		}
	}
	if prim.Indices.Count > 0 {
		if prim.Indices.Buffer, err = s.uploader.indexBuffer(ctx, label, prim.Indices); err != nil {
			return nil, fmt.Errorf("failed to upload indices: %w", err)
		}
	}
	return prim, nil
}
