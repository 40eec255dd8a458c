package workitem_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/mcdev12/planning-poker/go/internal/models"
	"github.com/mcdev12/planning-poker/go/internal/rpc"
	"github.com/mcdev12/planning-poker/go/internal/testfixtures"
	"github.com/mcdev12/planning-poker/go/internal/workitem"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []*models.WorkItem
}

func (n *recordingNotifier) WorkItemUpdated(_ context.Context, item *models.WorkItem) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

func TestService_CreateScoreAndList(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := workitem.NewService(workitem.NewApp(testfixtures.NewWorkItemStore("ABC")), notifier)
	mux := http.NewServeMux()
	mux.Handle(workitem.NewHandler(svc))
	server := httptest.NewServer(mux)
	defer server.Close()
	ctx := context.Background()

	create := connect.NewClient[workitem.CreateWorkItemRequest, workitem.CreateWorkItemResponse](
		server.Client(), server.URL+rpc.Procedure(workitem.ServiceName, "CreateWorkItem"), rpc.ClientOptions()...)
	score := connect.NewClient[workitem.UpdateScoreRequest, workitem.UpdateScoreResponse](
		server.Client(), server.URL+rpc.Procedure(workitem.ServiceName, "UpdateScore"), rpc.ClientOptions()...)
	list := connect.NewClient[workitem.ListWorkItemsRequest, workitem.ListWorkItemsResponse](
		server.Client(), server.URL+rpc.Procedure(workitem.ServiceName, "ListWorkItems"), rpc.ClientOptions()...)

	_, err := create.CallUnary(ctx, connect.NewRequest(&workitem.CreateWorkItemRequest{SessionToken: "NOPE", Code: "A", Name: "B"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = create.CallUnary(ctx, connect.NewRequest(&workitem.CreateWorkItemRequest{SessionToken: "ABC"}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	created, err := create.CallUnary(ctx, connect.NewRequest(&workitem.CreateWorkItemRequest{SessionToken: "ABC", Code: "PP-7", Name: "Checkout"}))
	if err != nil {
		t.Fatalf("CreateWorkItem: %v", err)
	}
	id := created.Msg.WorkItem.ID

	if _, err := score.CallUnary(ctx, connect.NewRequest(&workitem.UpdateScoreRequest{SessionToken: "ABC", WorkItemID: id, Score: floatPtr(13)})); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}

	listed, err := list.CallUnary(ctx, connect.NewRequest(&workitem.ListWorkItemsRequest{SessionToken: "ABC"}))
	if err != nil {
		t.Fatalf("ListWorkItems: %v", err)
	}
	if len(listed.Msg.WorkItems) != 1 || *listed.Msg.WorkItems[0].Score != 13 {
		t.Fatalf("unexpected items %+v", listed.Msg.WorkItems)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.items) != 1 || notifier.items[0].ID != id {
		t.Fatalf("score change should notify the room once, got %+v", notifier.items)
	}
}
