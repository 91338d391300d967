package jsonrepo

import (
	"context"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

// KnowledgeBaseRepository reads knowledge_base.json.
type KnowledgeBaseRepository struct {
	doc *document[appliance.KnowledgeBase]
}

// NewKnowledgeBaseRepository constructs the repository. The file is read on
// first use.
func NewKnowledgeBaseRepository(path string) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{doc: newDocument[appliance.KnowledgeBase](path, "knowledge base")}
}

// Problems returns every problem with defaults applied.
func (r *KnowledgeBaseRepository) Problems(context.Context) ([]appliance.Problem, error) {
	kb, err := r.doc.get()
	if err != nil {
		return nil, err
	}
	out := make([]appliance.Problem, 0, len(kb.Problems))
	for _, p := range kb.Problems {
		out = append(out, p.Normalize())
	}
	return out, nil
}

func (r *KnowledgeBaseRepository) DangerousKeywords(context.Context) ([]string, error) {
	kb, err := r.doc.get()
	if err != nil {
		return nil, err
	}
	return kb.DangerousKeywords, nil
}

func (r *KnowledgeBaseRepository) TechnicianFee(context.Context) (float64, error) {
	kb, err := r.doc.get()
	if err != nil {
		return 0, err
	}
	return kb.Fee(), nil
}

func (r *KnowledgeBaseRepository) ClearCache() {
	r.doc.reset()
}

var _ appliance.KnowledgeBaseRepository = (*KnowledgeBaseRepository)(nil)
