package logstream

import (
	"context"
	"errors"
	"testing"

	"yt2tandoor/internal/ipc"
)

type scriptedTailClient struct {
	responses []*ipc.LogTailResponse
	requests  []ipc.LogTailRequest
	err       error
}

func (c *scriptedTailClient) LogTail(req ipc.LogTailRequest) (*ipc.LogTailResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return &ipc.LogTailResponse{}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func TestStreamEmitsLinesOnce(t *testing.T) {
	client := &scriptedTailClient{
		responses: []*ipc.LogTailResponse{
			{Lines: []string{"one", "two"}, Offset: 42},
		},
	}

	var got []string
	printed, err := Stream(context.Background(), client, Options{Lines: 10}, func(line string) {
		got = append(got, line)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed {
		t.Fatal("expected printed=true")
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("unexpected lines: %v", got)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected a single request without follow, got %d", len(client.requests))
	}
	if client.requests[0].Limit != 10 || client.requests[0].Offset != -1 {
		t.Fatalf("unexpected initial request: %+v", client.requests[0])
	}
}

func TestStreamFollowAdvancesOffset(t *testing.T) {
	client := &scriptedTailClient{
		responses: []*ipc.LogTailResponse{
			{Lines: []string{"a"}, Offset: 10},
			{Lines: []string{"b"}, Offset: 20},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	printed, err := Stream(ctx, client, Options{Lines: 1, Follow: true}, func(line string) {
		got = append(got, line)
		if len(got) == 2 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(got) != 2 {
		t.Fatalf("expected two followed lines, got %v", got)
	}
	if client.requests[1].Offset != 10 {
		t.Fatalf("expected second request to resume at offset 10, got %+v", client.requests[1])
	}
	if client.requests[1].Limit != 0 {
		t.Fatalf("expected follow requests to drop the line limit, got %+v", client.requests[1])
	}
}

func TestStreamRejectsNilClient(t *testing.T) {
	if _, err := Stream(context.Background(), nil, Options{}, nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestStreamWrapsClientError(t *testing.T) {
	client := &scriptedTailClient{err: errors.New("socket gone")}
	if _, err := Stream(context.Background(), client, Options{}, nil); err == nil {
		t.Fatal("expected tail error")
	}
}
