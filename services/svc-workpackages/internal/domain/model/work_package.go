package model

import "time"

// Attribute and filter field names. Specifications, sort keys and group keys
// all refer to work package data by these names.
const (
	FieldID            = "id"
	FieldProject       = "project"
	FieldStatus        = "status"
	FieldStatusClosed  = "statusClosed"
	FieldType          = "type"
	FieldMilestone     = "milestone"
	FieldPriority      = "priority"
	FieldAssignee      = "assignee"
	FieldParent        = "parent"
	FieldSubject       = "subject"
	FieldDescription   = "description"
	FieldStartDate     = "startDate"
	FieldDueDate       = "dueDate"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
	FieldEstimatedTime = "estimatedTime"
	FieldRemainingTime = "remainingTime"
	FieldStoryPoints   = "storyPoints"
	FieldLaborCosts    = "laborCosts"
	FieldMaterialCosts = "materialCosts"
	FieldOverallCosts  = "overallCosts"
)

type (
	ProjectRef struct {
		ID         int64
		Name       string
		Identifier string
	}

	StatusRef struct {
		ID       int64
		Name     string
		Position int
		IsClosed bool
	}

	TypeRef struct {
		ID          int64
		Name        string
		Position    int
		IsMilestone bool
	}

	PriorityRef struct {
		ID       int64
		Name     string
		Position int
	}

	UserRef struct {
		ID   int64
		Name string
	}

	// Relation is one edge of the relation graph as seen from the owning
	// work package. Outgoing edges start at the owner.
	Relation struct {
		Type     string
		OtherID  int64
		Outgoing bool
	}

	WorkPackage struct {
		ID          int64
		Subject     string
		Description string
		Project     ProjectRef
		Type        TypeRef
		Status      StatusRef
		Priority    PriorityRef
		Assignee    *UserRef
		ParentID    *int64
		StartDate   *time.Time
		DueDate     *time.Time

		EstimatedHours *float64
		RemainingHours *float64
		StoryPoints    *int64
		LaborCosts     float64
		MaterialCosts  float64

		Relations []Relation
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// WorkPackagePage is one page of a filtered set together with the size of
	// the whole set.
	WorkPackagePage struct {
		Elements []*WorkPackage
		Total    int
	}
)

func (w *WorkPackage) OverallCosts() float64 {
	return w.LaborCosts + w.MaterialCosts
}

// FieldValue returns the value of the named field, or nil when it is unset.
// Identifiers are int64, dates time.Time, hours float64.
func (w *WorkPackage) FieldValue(field string) any {
	switch field {
	case FieldID:
		return w.ID
	case FieldProject:
		return w.Project.ID
	case FieldStatus:
		return w.Status.ID
	case FieldStatusClosed:
		return w.Status.IsClosed
	case FieldType:
		return w.Type.ID
	case FieldMilestone:
		return w.Type.IsMilestone
	case FieldPriority:
		return w.Priority.ID
	case FieldAssignee:
		if w.Assignee == nil {
			return nil
		}

		return w.Assignee.ID
	case FieldParent:
		return derefOrNil(w.ParentID)
	case FieldSubject:
		return w.Subject
	case FieldDescription:
		return w.Description
	case FieldStartDate:
		return derefOrNil(w.StartDate)
	case FieldDueDate:
		return derefOrNil(w.DueDate)
	case FieldCreatedAt:
		return w.CreatedAt
	case FieldUpdatedAt:
		return w.UpdatedAt
	case FieldEstimatedTime:
		return derefOrNil(w.EstimatedHours)
	case FieldRemainingTime:
		return derefOrNil(w.RemainingHours)
	case FieldStoryPoints:
		return derefOrNil(w.StoryPoints)
	case FieldLaborCosts:
		return w.LaborCosts
	case FieldMaterialCosts:
		return w.MaterialCosts
	case FieldOverallCosts:
		return w.OverallCosts()
	}

	return nil
}

func derefOrNil[T any](v *T) any {
	if v == nil {
		return nil
	}

	return *v
}
