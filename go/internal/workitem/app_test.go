package workitem_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/testfixtures"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestApp_CreateWorkItem(t *testing.T) {
	app := workitem.NewApp(testfixtures.NewWorkItemStore("ABC"))
	ctx := context.Background()

	tests := []struct {
		name string
		req  workitem.CreateWorkItemRequest
		want error
	}{
		{"valid", workitem.CreateWorkItemRequest{SessionToken: "ABC", Code: " PP-1 ", Name: "Login"}, nil},
		{"missing session token", workitem.CreateWorkItemRequest{Code: "PP-1", Name: "Login"}, workitem.ErrInvalidWorkItem},
		{"missing code", workitem.CreateWorkItemRequest{SessionToken: "ABC", Code: "  ", Name: "Login"}, workitem.ErrInvalidWorkItem},
		{"missing name", workitem.CreateWorkItemRequest{SessionToken: "ABC", Code: "PP-1"}, workitem.ErrInvalidWorkItem},
		{"unknown session", workitem.CreateWorkItemRequest{SessionToken: "NOPE", Code: "PP-1", Name: "Login"}, workitem.ErrSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := app.CreateWorkItem(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want == nil && item.Code != "PP-1" {
				t.Fatalf("code should be trimmed, got %q", item.Code)
			}
		})
	}
}

func TestApp_FindInSession(t *testing.T) {
	store := testfixtures.NewWorkItemStore()
	item := models.WorkItem{ID: uuid.New(), SessionToken: "ABC", Code: "PP-1", Name: "Login"}
	store.Seed(item)
	app := workitem.NewApp(store)
	ctx := context.Background()

	got, err := app.FindInSession(ctx, "ABC", item.ID)
	if err != nil {
		t.Fatalf("FindInSession: %v", err)
	}
	if got.ID != item.ID {
		t.Fatalf("got %s, want %s", got.ID, item.ID)
	}

	if _, err := app.FindInSession(ctx, "OTHER", item.ID); !errors.Is(err, workitem.ErrNotFound) {
		t.Fatalf("item of another session: expected ErrNotFound, got %v", err)
	}
	if _, err := app.FindInSession(ctx, "ABC", uuid.New()); !errors.Is(err, workitem.ErrNotFound) {
		t.Fatalf("missing item: expected ErrNotFound, got %v", err)
	}
}

func TestApp_UpdateScore(t *testing.T) {
	store := testfixtures.NewWorkItemStore()
	item := models.WorkItem{ID: uuid.New(), SessionToken: "ABC", Code: "PP-1", Name: "Login"}
	store.Seed(item)
	app := workitem.NewApp(store)
	ctx := context.Background()

	updated, err := app.UpdateScore(ctx, workitem.UpdateScoreRequest{SessionToken: "ABC", WorkItemID: item.ID, Score: floatPtr(5)})
	if err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if updated.Score == nil || *updated.Score != 5 {
		t.Fatalf("score = %v, want 5", updated.Score)
	}

	cleared, err := app.UpdateScore(ctx, workitem.UpdateScoreRequest{SessionToken: "ABC", WorkItemID: item.ID})
	if err != nil {
		t.Fatalf("clear score: %v", err)
	}
	if cleared.Score != nil {
		t.Fatalf("score should be cleared, got %v", *cleared.Score)
	}

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := app.UpdateScore(ctx, workitem.UpdateScoreRequest{SessionToken: "ABC", WorkItemID: item.ID, Score: floatPtr(bad)})
		if !errors.Is(err, workitem.ErrInvalidWorkItem) {
			t.Fatalf("score %v: expected ErrInvalidWorkItem, got %v", bad, err)
		}
	}

	_, err = app.UpdateScore(ctx, workitem.UpdateScoreRequest{SessionToken: "OTHER", WorkItemID: item.ID, Score: floatPtr(3)})
	if !errors.Is(err, workitem.ErrNotFound) {
		t.Fatalf("foreign session: expected ErrNotFound, got %v", err)
	}
}

func TestApp_DeleteWorkItem(t *testing.T) {
	store := testfixtures.NewWorkItemStore()
	item := models.WorkItem{ID: uuid.New(), SessionToken: "ABC", Code: "PP-1", Name: "Login"}
	store.Seed(item)
	app := workitem.NewApp(store)
	ctx := context.Background()

	if err := app.DeleteWorkItem(ctx, "OTHER", item.ID); !errors.Is(err, workitem.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := app.DeleteWorkItem(ctx, "ABC", item.ID); err != nil {
		t.Fatalf("DeleteWorkItem: %v", err)
	}
	items, err := app.ListWorkItems(ctx, "ABC")
	if err != nil {
		t.Fatalf("ListWorkItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
