package tweet

import (
	"testing"
	"time"
)

func TestAssembleThreadsPartitions(t *testing.T) {
	tweets := []Tweet{
		{ID: "t1", IsThread: true, ThreadID: "conv1", ThreadPosition: 2},
		{ID: "t2"},
		{ID: "t3", IsThread: true, ThreadID: "conv1", ThreadPosition: 1},
		{ID: "t4", IsThread: true, ThreadID: "conv2", ThreadPosition: 1},
		{ID: "t5", IsThread: true, ThreadID: ""}, // flagged but no id: standalone
	}

	out := AssembleThreads(tweets)

	if len(out.Threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(out.Threads))
	}
	if len(out.Standalone) != 2 {
		t.Fatalf("expected 2 standalone tweets, got %d", len(out.Standalone))
	}

	conv1 := out.Threads["conv1"]
	if len(conv1) != 2 {
		t.Fatalf("expected 2 tweets in conv1, got %d", len(conv1))
	}
	if conv1[0].ID != "t3" || conv1[1].ID != "t1" {
		t.Fatalf("conv1 not ordered by position: %s, %s", conv1[0].ID, conv1[1].ID)
	}

	if out.Standalone[0].ID != "t2" || out.Standalone[1].ID != "t5" {
		t.Fatalf("standalone order wrong: %s, %s", out.Standalone[0].ID, out.Standalone[1].ID)
	}

	total := len(out.Standalone)
	for _, ts := range out.Threads {
		total += len(ts)
	}
	if total != len(tweets) {
		t.Fatalf("expected %d tweets total, got %d", len(tweets), total)
	}
}

func TestAssembleThreadsEqualPositionsKeepInputOrder(t *testing.T) {
	tweets := []Tweet{
		{ID: "a", IsThread: true, ThreadID: "c", ThreadPosition: 1},
		{ID: "b", IsThread: true, ThreadID: "c", ThreadPosition: 1},
	}

	out := AssembleThreads(tweets)
	conv := out.Threads["c"]
	if conv[0].ID != "a" || conv[1].ID != "b" {
		t.Fatalf("equal positions should keep input order, got %s, %s", conv[0].ID, conv[1].ID)
	}
}

func TestAssembleThreadsEmpty(t *testing.T) {
	out := AssembleThreads(nil)
	if len(out.Threads) != 0 || len(out.Standalone) != 0 {
		t.Fatalf("expected empty result, got %d threads and %d standalone", len(out.Threads), len(out.Standalone))
	}
}

func TestAssembleThreadsDoesNotModifyInput(t *testing.T) {
	tweets := []Tweet{
		{ID: "x", IsThread: true, ThreadID: "c", ThreadPosition: 2, CreatedAt: time.Now()},
		{ID: "y", IsThread: true, ThreadID: "c", ThreadPosition: 1},
	}

	AssembleThreads(tweets)
	if tweets[0].ID != "x" || tweets[1].ID != "y" {
		t.Fatalf("input slice was reordered: %s, %s", tweets[0].ID, tweets[1].ID)
	}
}
