package jsonrepo

import (
	"context"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

// TechnicianRepository reads technicians.json.
type TechnicianRepository struct {
	doc *document[[]appliance.Technician]
}

// NewTechnicianRepository constructs the repository.
func NewTechnicianRepository(path string) *TechnicianRepository {
	return &TechnicianRepository{doc: newDocument[[]appliance.Technician](path, "technician data")}
}

func (r *TechnicianRepository) All(context.Context) ([]appliance.Technician, error) {
	return r.doc.get()
}

func (r *TechnicianRepository) ByID(_ context.Context, id string) (appliance.Technician, bool, error) {
	techs, err := r.doc.get()
	if err != nil {
		return appliance.Technician{}, false, err
	}
	for _, t := range techs {
		if t.ID == id {
			return t, true, nil
		}
	}
	return appliance.Technician{}, false, nil
}

// AvailableFor keeps the file order.
func (r *TechnicianRepository) AvailableFor(_ context.Context, applianceType string) ([]appliance.Technician, error) {
	techs, err := r.doc.get()
	if err != nil {
		return nil, err
	}
	var out []appliance.Technician
	for _, t := range techs {
		if t.IsAvailableFor(applianceType) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TechnicianRepository) ClearCache() {
	r.doc.reset()
}

var _ appliance.TechnicianRepository = (*TechnicianRepository)(nil)
