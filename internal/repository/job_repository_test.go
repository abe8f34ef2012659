package repository

import (
	"testing"

	"freight-market-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildJobFilterDefault(t *testing.T) {
	filter := BuildJobFilter(JobQuery{})

	if len(filter) != 1 {
		t.Errorf("default filter = %v, want only the status clause", filter)
	}
	if filter["status"] != models.JobStatusActive {
		t.Errorf("status = %v, want active", filter["status"])
	}
}

func TestBuildJobFilterSearch(t *testing.T) {
	filter := BuildJobFilter(JobQuery{Search: "pallet"})

	or, ok := filter["$or"].([]bson.M)
	if !ok {
		t.Fatalf("search filter missing $or: %v", filter)
	}
	// Title, description and both route cities are searched.
	if len(or) != 4 {
		t.Errorf("$or branches = %d, want 4", len(or))
	}
}

func TestBuildJobFilterCity(t *testing.T) {
	filter := BuildJobFilter(JobQuery{City: "Ankara"})

	and, ok := filter["$and"].([]bson.M)
	if !ok || len(and) != 1 {
		t.Fatalf("city filter missing $and: %v", filter)
	}
	or, ok := and[0]["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Errorf("city clause = %v, want origin-or-destination match", and[0])
	}
}

func TestBuildJobFilterAmountRange(t *testing.T) {
	min, max := 1000.0, 8000.0

	filter := BuildJobFilter(JobQuery{MinAmount: &min, MaxAmount: &max})
	amount, ok := filter["payment.amount"].(bson.M)
	if !ok {
		t.Fatalf("filter missing payment.amount: %v", filter)
	}
	if amount["$gte"] != min || amount["$lte"] != max {
		t.Errorf("amount clause = %v, want $gte %v and $lte %v", amount, min, max)
	}

	filter = BuildJobFilter(JobQuery{MinAmount: &min})
	amount = filter["payment.amount"].(bson.M)
	if _, hasMax := amount["$lte"]; hasMax {
		t.Errorf("amount clause = %v, want no $lte without MaxAmount", amount)
	}
}

func TestBuildJobSort(t *testing.T) {
	cases := []struct {
		sortBy string
		field  string
		order  int
	}{
		{"", "createdAt", -1},
		{"unknown", "createdAt", -1},
		{"oldest", "createdAt", 1},
		{"highest", "payment.amount", -1},
		{"lowest", "payment.amount", 1},
		{"soonest", "schedule.pickupDate", 1},
	}
	for _, c := range cases {
		sort := BuildJobSort(c.sortBy)
		if len(sort) != 1 || sort[0].Key != c.field || sort[0].Value != c.order {
			t.Errorf("BuildJobSort(%q) = %v, want {%s: %d}", c.sortBy, sort, c.field, c.order)
		}
	}
}
