package jsonrepo

import (
	"context"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

// CommonIssuesRepository reads common_issues.json, a map from appliance type
// to issue titles.
type CommonIssuesRepository struct {
	doc *document[map[string][]string]
}

// NewCommonIssuesRepository constructs the repository.
func NewCommonIssuesRepository(path string) *CommonIssuesRepository {
	return &CommonIssuesRepository{doc: newDocument[map[string][]string](path, "common issues")}
}

// ForType returns nil for unlisted types.
func (r *CommonIssuesRepository) ForType(_ context.Context, applianceType string) ([]string, error) {
	issues, err := r.doc.get()
	if err != nil {
		return nil, err
	}
	return issues[applianceType], nil
}

func (r *CommonIssuesRepository) ClearCache() {
	r.doc.reset()
}

var _ appliance.CommonIssuesRepository = (*CommonIssuesRepository)(nil)
