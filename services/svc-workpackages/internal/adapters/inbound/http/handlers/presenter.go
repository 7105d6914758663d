package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/architeacher/workpackages/services/svc-workpackages/internal/usecases/queries"
)

const (
	apiBasePath = "/api/v3"
	dateLayout  = "2006-01-02"
)

type (
	Link struct {
		Href  *string `json:"href"`
		Title string  `json:"title,omitempty"`
	}

	FormattableText struct {
		Format string `json:"format"`
		Raw    string `json:"raw"`
	}

	WorkPackageLinks struct {
		Self     Link `json:"self"`
		Project  Link `json:"project"`
		Status   Link `json:"status"`
		Type     Link `json:"type"`
		Priority Link `json:"priority"`
		Assignee Link `json:"assignee"`
		Parent   Link `json:"parent"`
	}

	WorkPackageDocument struct {
		Type          string           `json:"_type"`
		ID            int64            `json:"id"`
		Subject       string           `json:"subject"`
		Description   FormattableText  `json:"description"`
		StartDate     *string          `json:"startDate"`
		DueDate       *string          `json:"dueDate"`
		EstimatedTime *string          `json:"estimatedTime"`
		RemainingTime *string          `json:"remainingTime"`
		StoryPoints   *int64           `json:"storyPoints"`
		LaborCosts    string           `json:"laborCosts"`
		MaterialCosts string           `json:"materialCosts"`
		OverallCosts  string           `json:"overallCosts"`
		CreatedAt     time.Time        `json:"createdAt"`
		UpdatedAt     time.Time        `json:"updatedAt"`
		Links         WorkPackageLinks `json:"_links"`
	}

	GroupLinks struct {
		ValueLink []Link `json:"valueLink"`
		GroupBy   Link   `json:"groupBy"`
	}

	GroupDocument struct {
		Value any            `json:"value"`
		Count int            `json:"count"`
		Sums  map[string]any `json:"sums,omitempty"`
		Links GroupLinks     `json:"_links"`
	}

	CollectionLinks struct {
		Self             Link  `json:"self"`
		NextByOffset     *Link `json:"nextByOffset,omitempty"`
		PreviousByOffset *Link `json:"previousByOffset,omitempty"`
	}

	WorkPackagesEmbedded struct {
		Elements []WorkPackageDocument `json:"elements"`
	}

	// WorkPackageCollection is the wire shape of a query result. Groups is
	// only present for grouped queries, TotalSums only when sums were asked for.
	WorkPackageCollection struct {
		Type      string               `json:"_type"`
		Count     int                  `json:"count"`
		Total     int                  `json:"total"`
		PageSize  uint                 `json:"pageSize"`
		Offset    uint                 `json:"offset"`
		Embedded  WorkPackagesEmbedded `json:"_embedded"`
		Groups    *[]GroupDocument     `json:"groups,omitempty"`
		TotalSums map[string]any       `json:"totalSums,omitempty"`
		Links     CollectionLinks      `json:"_links"`
	}

	AllowedValueDocument struct {
		Type  string `json:"_type"`
		Label string `json:"label"`
		Value string `json:"value"`
		Links struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	ProjectDocument struct {
		Type       string `json:"_type"`
		ID         int64  `json:"id"`
		Name       string `json:"name"`
		Identifier string `json:"identifier"`
		Links      struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	AllowedValuesEmbedded struct {
		Elements []AllowedValueDocument `json:"elements"`
		Selected []ProjectDocument      `json:"selected"`
	}

	AllowedValuesCollection struct {
		Type      string                `json:"_type"`
		Count     int                   `json:"count"`
		Total     int                   `json:"total"`
		Available bool                  `json:"available"`
		Embedded  AllowedValuesEmbedded `json:"_embedded"`
		Links     struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	QueryFilterDocument struct {
		Type      string   `json:"_type"`
		ID        string   `json:"id"`
		Kind      string   `json:"kind"`
		Operators []string `json:"operators"`
		Links     struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	QueryGroupByDocument struct {
		Type  string `json:"_type"`
		ID    string `json:"id"`
		Name  string `json:"name"`
		Links struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	// QueryResourceCollection lists what queries can be built from.
	QueryResourceCollection[T any] struct {
		Type     string `json:"_type"`
		Count    int    `json:"count"`
		Total    int    `json:"total"`
		Embedded struct {
			Elements []T `json:"elements"`
		} `json:"_embedded"`
		Links struct {
			Self Link `json:"self"`
		} `json:"_links"`
	}

	// ResultPresenter renders query results as HAL documents.
	ResultPresenter struct {
		currency string
	}
)

func NewResultPresenter(currency string) ResultPresenter {
	return ResultPresenter{currency: currency}
}

// Collection renders result. collectionPath is the path the query was issued
// against; links carry the query back as parameters.
func (p ResultPresenter) Collection(result *model.ResultSet, collectionPath string) WorkPackageCollection {
	elements := make([]WorkPackageDocument, 0, len(result.Elements))
	for _, w := range result.Elements {
		elements = append(elements, p.WorkPackage(w))
	}

	doc := WorkPackageCollection{
		Type:     "WorkPackageCollection",
		Count:    result.Count,
		Total:    result.Total,
		PageSize: result.Spec.PageSize,
		Offset:   result.Spec.Offset,
		Embedded: WorkPackagesEmbedded{Elements: elements},
		Links: CollectionLinks{
			Self: hrefLink(pageHref(collectionPath, result.Spec, result.Spec.Offset)),
		},
	}

	if uint64(result.Spec.Offset)*uint64(result.Spec.PageSize) < uint64(result.Total) {
		next := hrefLink(pageHref(collectionPath, result.Spec, result.Spec.Offset+1))
		doc.Links.NextByOffset = &next
	}

	if result.Spec.Offset > 1 {
		previous := hrefLink(pageHref(collectionPath, result.Spec, result.Spec.Offset-1))
		doc.Links.PreviousByOffset = &previous
	}

	if result.GroupBy != nil {
		groups := make([]GroupDocument, 0, len(result.Groups))
		for _, g := range result.Groups {
			groups = append(groups, p.Group(g, *result.GroupBy))
		}

		doc.Groups = &groups
	}

	if result.TotalSums != nil {
		doc.TotalSums = result.TotalSums.Formatted(p.currency)
	}

	return doc
}

// Group renders one partition. The unset partition has a null value and no
// value links.
func (p ResultPresenter) Group(group model.Group, groupBy model.Attribute) GroupDocument {
	doc := GroupDocument{
		Count: group.Count,
		Links: GroupLinks{
			ValueLink: make([]Link, 0, 1),
			GroupBy: Link{
				Href:  ptr(groupByHref(groupBy.Name)),
				Title: groupBy.Title,
			},
		},
	}

	if group.Value != nil {
		doc.Value = group.Value.Name
		doc.Links.ValueLink = append(doc.Links.ValueLink, hrefLink(resourceHref(group.Value.Resource, group.Value.ID)))
	}

	if group.Sums != nil {
		doc.Sums = group.Sums.Formatted(p.currency)
	}

	return doc
}

func (p ResultPresenter) WorkPackage(w *model.WorkPackage) WorkPackageDocument {
	doc := WorkPackageDocument{
		Type:          "WorkPackage",
		ID:            w.ID,
		Subject:       w.Subject,
		Description:   FormattableText{Format: "markdown", Raw: w.Description},
		StartDate:     formatDate(w.StartDate),
		DueDate:       formatDate(w.DueDate),
		EstimatedTime: formatHours(w.EstimatedHours),
		RemainingTime: formatHours(w.RemainingHours),
		StoryPoints:   w.StoryPoints,
		LaborCosts:    model.FormatMoney(w.LaborCosts, p.currency),
		MaterialCosts: model.FormatMoney(w.MaterialCosts, p.currency),
		OverallCosts:  model.FormatMoney(w.OverallCosts(), p.currency),
		CreatedAt:     w.CreatedAt.UTC(),
		UpdatedAt:     w.UpdatedAt.UTC(),
		Links: WorkPackageLinks{
			Self:     titledLink(resourceHref("work_packages", w.ID), w.Subject),
			Project:  titledLink(resourceHref("projects", w.Project.ID), w.Project.Name),
			Status:   titledLink(resourceHref("statuses", w.Status.ID), w.Status.Name),
			Type:     titledLink(resourceHref("types", w.Type.ID), w.Type.Name),
			Priority: titledLink(resourceHref("priorities", w.Priority.ID), w.Priority.Name),
			Assignee: Link{},
			Parent:   Link{},
		},
	}

	if w.Assignee != nil {
		doc.Links.Assignee = titledLink(resourceHref("users", w.Assignee.ID), w.Assignee.Name)
	}

	if w.ParentID != nil {
		doc.Links.Parent = hrefLink(resourceHref("work_packages", *w.ParentID))
	}

	return doc
}

func (p ResultPresenter) AllowedValues(result *queries.ProjectFilterValuesResult, selfPath string) AllowedValuesCollection {
	elements := make([]AllowedValueDocument, 0, len(result.AllowedValues))
	for _, v := range result.AllowedValues {
		element := AllowedValueDocument{
			Type:  "AllowedValue",
			Label: v.Label,
			Value: strconv.FormatInt(v.ID, 10),
		}
		element.Links.Self = hrefLink(resourceHref("projects", v.ID))

		elements = append(elements, element)
	}

	selected := make([]ProjectDocument, 0, len(result.Selected))
	for _, project := range result.Selected {
		doc := ProjectDocument{
			Type:       "Project",
			ID:         project.ID,
			Name:       project.Name,
			Identifier: project.Identifier,
		}
		doc.Links.Self = titledLink(resourceHref("projects", project.ID), project.Name)

		selected = append(selected, doc)
	}

	doc := AllowedValuesCollection{
		Type:      "Collection",
		Count:     len(elements),
		Total:     len(elements),
		Available: result.Available,
		Embedded:  AllowedValuesEmbedded{Elements: elements, Selected: selected},
	}
	doc.Links.Self = hrefLink(selfPath)

	return doc
}

func (p ResultPresenter) Filters(defs []model.FilterDefinition) QueryResourceCollection[QueryFilterDocument] {
	elements := make([]QueryFilterDocument, 0, len(defs))
	for _, def := range defs {
		elements = append(elements, p.Filter(def))
	}

	return resourceCollection(elements, apiBasePath+"/queries/filters")
}

// Filter renders a filter with the operators it accepts.
func (p ResultPresenter) Filter(def model.FilterDefinition) QueryFilterDocument {
	operators := def.AllowedOperators()

	doc := QueryFilterDocument{
		Type:      "QueryFilter",
		ID:        def.Name,
		Kind:      string(def.Kind),
		Operators: make([]string, 0, len(operators)),
	}

	for _, op := range operators {
		doc.Operators = append(doc.Operators, op.String())
	}

	doc.Links.Self = hrefLink(apiBasePath + "/queries/filters/" + def.Name)

	return doc
}

func (p ResultPresenter) GroupBys(attrs []model.Attribute) QueryResourceCollection[QueryGroupByDocument] {
	elements := make([]QueryGroupByDocument, 0, len(attrs))
	for _, attr := range attrs {
		elements = append(elements, p.GroupByAttribute(attr))
	}

	return resourceCollection(elements, apiBasePath+"/queries/group_bys")
}

// GroupByAttribute renders attr at the href group links point to.
func (p ResultPresenter) GroupByAttribute(attr model.Attribute) QueryGroupByDocument {
	doc := QueryGroupByDocument{
		Type: "QueryGroupBy",
		ID:   attr.Name,
		Name: attr.Title,
	}
	doc.Links.Self = titledLink(groupByHref(attr.Name), attr.Title)

	return doc
}

func resourceCollection[T any](elements []T, selfPath string) QueryResourceCollection[T] {
	doc := QueryResourceCollection[T]{
		Type:  "Collection",
		Count: len(elements),
		Total: len(elements),
	}
	doc.Embedded.Elements = elements
	doc.Links.Self = hrefLink(selfPath)

	return doc
}

func groupByHref(name string) string {
	return apiBasePath + "/queries/group_bys/" + name
}

func pageHref(collectionPath string, spec model.QuerySpec, page uint) string {
	spec.Offset = page

	return collectionPath + "?" + spec.Values().Encode()
}

func resourceHref(resource string, id int64) string {
	return fmt.Sprintf("%s/%s/%d", apiBasePath, resource, id)
}

func hrefLink(href string) Link {
	return Link{Href: &href}
}

func titledLink(href, title string) Link {
	return Link{Href: &href, Title: title}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}

	return ptr(t.Format(dateLayout))
}

func formatHours(hours *float64) *string {
	if hours == nil {
		return nil
	}

	return ptr(model.FormatHours(*hours))
}

func ptr[T any](v T) *T { return &v }
