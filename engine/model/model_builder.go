package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshContainers is an option builder that sets the mesh containers of the Model.
//
// Parameters:
//   - containers: the mesh containers in traversal order
//
// Returns:
//   - ModelBuilderOption: a function that applies the containers option to a model
func WithMeshContainers(containers []*MeshContainer) ModelBuilderOption {
	return func(m *model) {
		m.meshContainers = containers
	}
}

// WithNodes is an option builder that sets the flat node array and the root node indices.
//
// Parameters:
//   - all: every node indexed by source node index
//   - roots: the root node indices of the default scene
//
// Returns:
//   - ModelBuilderOption: a function that applies the nodes option to a model
func WithNodes(all []*NodeContent, roots []int) ModelBuilderOption {
	return func(m *model) {
		m.allNodes = all
		m.rootNodes = roots
	}
}

// WithMaterials is an option builder that sets the material table.
// Entries are named after the descriptions; registry ids are filled in later via SetMaterialID.
//
// Parameters:
//   - descriptions: the deduplicated materials in first-use order
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(descriptions []*MaterialDescription) ModelBuilderOption {
	return func(m *model) {
		m.descriptions = descriptions
		m.materials = make([]MaterialEntry, len(descriptions))
		for i, d := range descriptions {
			m.materials[i] = MaterialEntry{Name: d.Name}
		}
	}
}

// WithAnimations is an option builder that sets the animation clips keyed by name.
//
// Parameters:
//   - clips: the clips
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(clips map[string]*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		if clips != nil {
			m.animations = clips
		}
	}
}

// WithSkins is an option builder that sets the skins.
//
// Parameters:
//   - skins: the skins in source order
//
// Returns:
//   - ModelBuilderOption: a function that applies the skins option to a model
func WithSkins(skins []*SkinContent) ModelBuilderOption {
	return func(m *model) {
		m.skins = skins
	}
}

// WithResources is an option builder that hands ownership of GPU resources to the Model.
//
// Parameters:
//   - resources: the resources created during import
//
// Returns:
//   - ModelBuilderOption: a function that applies the resources option to a model
func WithResources(resources []GPUResource) ModelBuilderOption {
	return func(m *model) {
		m.resources = resources
	}
}
