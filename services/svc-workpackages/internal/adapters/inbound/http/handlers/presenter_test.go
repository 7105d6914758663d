package handlers_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageSpec(offset, pageSize uint) model.QuerySpec {
	return model.QuerySpec{SortBy: model.DefaultSortBy, Offset: offset, PageSize: pageSize}
}

func hoursPtr(h float64) *float64 { return &h }

func TestResultPresenter_WorkPackage(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 15, 14, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	start := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	parentID := int64(7)

	doc := handlers.NewResultPresenter("EUR").WorkPackage(&model.WorkPackage{
		ID:             12,
		Subject:        "Write release notes",
		Project:        model.ProjectRef{ID: 1, Name: "Seed"},
		Status:         model.StatusRef{ID: 1, Name: "New"},
		Type:           model.TypeRef{ID: 2, Name: "Task"},
		Priority:       model.PriorityRef{ID: 8, Name: "Normal"},
		ParentID:       &parentID,
		StartDate:      &start,
		EstimatedHours: hoursPtr(4),
		LaborCosts:     12.5,
		CreatedAt:      created,
		UpdatedAt:      created,
	})

	assert.Equal(t, "WorkPackage", doc.Type)
	require.NotNil(t, doc.StartDate)
	assert.Equal(t, "2024-05-20", *doc.StartDate)
	assert.Nil(t, doc.DueDate)
	require.NotNil(t, doc.EstimatedTime)
	assert.Equal(t, "PT4H", *doc.EstimatedTime)
	assert.Nil(t, doc.RemainingTime)
	assert.Equal(t, "12.50 EUR", doc.LaborCosts)
	assert.Equal(t, "0.00 EUR", doc.MaterialCosts)
	assert.Equal(t, "12.50 EUR", doc.OverallCosts)
	assert.Equal(t, time.UTC, doc.CreatedAt.Location())

	assert.Equal(t, "/api/v3/work_packages/12", *doc.Links.Self.Href)
	assert.Equal(t, "Write release notes", doc.Links.Self.Title)
	assert.Equal(t, "/api/v3/projects/1", *doc.Links.Project.Href)
	assert.Equal(t, "/api/v3/work_packages/7", *doc.Links.Parent.Href)
	assert.Nil(t, doc.Links.Assignee.Href)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Nil(t, wire["dueDate"])
	assert.Contains(t, wire, "storyPoints")

	links := wire["_links"].(map[string]any)
	assert.Equal(t, map[string]any{"href": nil}, links["assignee"])
}

func TestResultPresenter_CollectionPaging(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name             string
		offset           uint
		total            int
		expectedNext     string
		expectedPrevious string
	}{
		{name: "first of several pages", offset: 1, total: 5, expectedNext: "2"},
		{name: "middle page", offset: 2, total: 5, expectedNext: "3", expectedPrevious: "1"},
		{name: "last page", offset: 3, total: 5, expectedPrevious: "2"},
		{name: "single page", offset: 1, total: 2},
		{name: "empty result", offset: 1, total: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			doc := handlers.NewResultPresenter("EUR").Collection(&model.ResultSet{
				Spec:  pageSpec(tc.offset, 2),
				Total: tc.total,
			}, "/api/v3/projects/1/work_packages")

			assert.Equal(t, "WorkPackageCollection", doc.Type)
			assert.Equal(t, tc.total, doc.Total)
			assert.Equal(t, uint(2), doc.PageSize)
			assert.Equal(t, tc.offset, doc.Offset)
			assert.NotNil(t, doc.Embedded.Elements)

			self := parseHref(t, doc.Links.Self)
			assert.Equal(t, "/api/v3/projects/1/work_packages", self.Path)
			assert.Equal(t, "2", self.Query().Get("pageSize"))

			if tc.expectedNext == "" {
				assert.Nil(t, doc.Links.NextByOffset)
			} else {
				require.NotNil(t, doc.Links.NextByOffset)
				assert.Equal(t, tc.expectedNext, parseHref(t, *doc.Links.NextByOffset).Query().Get("offset"))
			}

			if tc.expectedPrevious == "" {
				assert.Nil(t, doc.Links.PreviousByOffset)
			} else {
				require.NotNil(t, doc.Links.PreviousByOffset)
				assert.Equal(t, tc.expectedPrevious, parseHref(t, *doc.Links.PreviousByOffset).Query().Get("offset"))
			}
		})
	}
}

func TestResultPresenter_CollectionGroupsAndSums(t *testing.T) {
	t.Parallel()

	priority, ok := model.LookupAttribute(model.FieldPriority)
	require.True(t, ok)

	sums := model.Sums{EstimatedHours: hoursPtr(4), LaborCosts: 0}

	result := &model.ResultSet{
		Spec: model.QuerySpec{
			SortBy:   model.DefaultSortBy,
			GroupBy:  model.FieldPriority,
			ShowSums: true,
			Offset:   1,
			PageSize: 20,
		},
		Total:   3,
		GroupBy: &priority,
		Groups: []model.Group{
			{Value: &model.GroupValue{Resource: "priorities", ID: 9, Name: "High"}, Count: 2, Sums: &sums},
			{Value: nil, Count: 1, Sums: &model.Sums{}},
		},
		TotalSums: &sums,
	}

	data, err := json.Marshal(handlers.NewResultPresenter("EUR").Collection(result, "/api/v3/work_packages"))
	require.NoError(t, err)

	var wire struct {
		Groups []struct {
			Value any            `json:"value"`
			Count int            `json:"count"`
			Sums  map[string]any `json:"sums"`
			Links struct {
				ValueLink []map[string]any `json:"valueLink"`
				GroupBy   map[string]any   `json:"groupBy"`
			} `json:"_links"`
		} `json:"groups"`
		TotalSums map[string]any `json:"totalSums"`
	}
	require.NoError(t, json.Unmarshal(data, &wire))

	require.Len(t, wire.Groups, 2)

	high := wire.Groups[0]
	assert.Equal(t, "High", high.Value)
	assert.Equal(t, 2, high.Count)
	assert.Equal(t, "PT4H", high.Sums["estimatedTime"])
	assert.Equal(t, "0.00 EUR", high.Sums["laborCosts"])
	assert.Nil(t, high.Sums["storyPoints"])
	require.Len(t, high.Links.ValueLink, 1)
	assert.Equal(t, "/api/v3/priorities/9", high.Links.ValueLink[0]["href"])
	assert.Equal(t, "/api/v3/queries/group_bys/priority", high.Links.GroupBy["href"])
	assert.Equal(t, "Priority", high.Links.GroupBy["title"])

	unset := wire.Groups[1]
	assert.Nil(t, unset.Value)
	assert.Empty(t, unset.Links.ValueLink)
	assert.Nil(t, unset.Sums["estimatedTime"])

	assert.Equal(t, "PT4H", wire.TotalSums["estimatedTime"])
	assert.Equal(t, "0.00 EUR", wire.TotalSums["overallCosts"])
}

func TestResultPresenter_CollectionOmitsGroupsAndSums(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(handlers.NewResultPresenter("EUR").Collection(&model.ResultSet{
		Spec: pageSpec(1, 20),
	}, "/api/v3/work_packages"))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.NotContains(t, wire, "groups")
	assert.NotContains(t, wire, "totalSums")
	assert.Contains(t, wire, "_embedded")
}

func TestResultPresenter_AllowedValues(t *testing.T) {
	t.Parallel()

	doc := handlers.NewResultPresenter("EUR").AllowedValues(&queries.ProjectFilterValuesResult{
		Available: true,
		AllowedValues: []model.AllowedValue{
			{Label: "Seed", ID: 1},
			{Label: "-- Child", ID: 2},
		},
		Selected: []model.Project{{ID: 1, Name: "Seed", Identifier: "seed"}},
	}, "/api/v3/queries/filters/project/values")

	assert.Equal(t, "Collection", doc.Type)
	assert.Equal(t, 2, doc.Count)
	assert.True(t, doc.Available)
	require.Len(t, doc.Embedded.Elements, 2)
	assert.Equal(t, "-- Child", doc.Embedded.Elements[1].Label)
	assert.Equal(t, "2", doc.Embedded.Elements[1].Value)
	assert.Equal(t, "/api/v3/projects/2", *doc.Embedded.Elements[1].Links.Self.Href)
	require.Len(t, doc.Embedded.Selected, 1)
	assert.Equal(t, "seed", doc.Embedded.Selected[0].Identifier)
	assert.Equal(t, "/api/v3/queries/filters/project/values", *doc.Links.Self.Href)
}

func parseHref(t *testing.T, link handlers.Link) *url.URL {
	t.Helper()

	require.NotNil(t, link.Href)

	u, err := url.Parse(*link.Href)
	require.NoError(t, err)

	return u
}
