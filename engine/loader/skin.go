package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// readSkins decodes every skin of the document in source order.
// Inverse bind matrices are MAT4 FLOAT elements index-aligned with the joint list; a skin
// without an inverse bind matrix accessor gets nil matrices.
//
// Parameters:
//   - p: the parser
//
// Returns:
//   - []*model.SkinContent: the skins
//   - error: ErrInvalidSkin or an accessor error
func readSkins(p gltfParser) ([]*model.SkinContent, error) {
	doc := p.Document()
	skins := make([]*model.SkinContent, len(doc.Skins))

	for i := range doc.Skins {
		s := &doc.Skins[i]
		skin := &model.SkinContent{
			Name:   common.Coalesce(s.Name, fmt.Sprintf("_Skin_%d", i)),
			Joints: make([]int, len(s.Joints)),
		}

		for j, joint := range s.Joints {
			if joint < 0 || joint >= len(doc.Nodes) {
				return nil, fmt.Errorf("skin %d: joint %d references node %d of %d: %w", i, j, joint, len(doc.Nodes), ErrInvalidSkin)
			}
			skin.Joints[j] = joint
		}

		if s.Skeleton != nil {
			if *s.Skeleton < 0 || *s.Skeleton >= len(doc.Nodes) {
				return nil, fmt.Errorf("skin %d: skeleton node %d: %w", i, *s.Skeleton, ErrInvalidSkin)
			}
			skin.RootJoint = *s.Skeleton
		}

		if s.InverseBindMatrices != nil {
			view, err := p.Accessor(*s.InverseBindMatrices)
			if err != nil {
				return nil, fmt.Errorf("skin %d: inverse bind matrices: %w", i, err)
			}
			if !view.is(gltfComponentFloat, gltfTypeMat4) {
				return nil, fmt.Errorf("skin %d: inverse bind matrices are %s/%d, want MAT4 FLOAT: %w",
					i, view.accessorType, view.componentType, ErrInvalidSkin)
			}
			if view.count != len(s.Joints) {
				return nil, fmt.Errorf("skin %d: %d joints, %d inverse bind matrices: %w", i, len(s.Joints), view.count, ErrInvalidSkin)
			}
			skin.InverseBindMatrices = readAll(view, view.Mat4)
		}

		skins[i] = skin
	}
	return skins, nil
}
