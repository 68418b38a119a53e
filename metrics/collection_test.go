package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector("ApiCall")
	c.Record(ServiceID, "S3")
	c.Record(APICallDuration, 120*time.Millisecond)

	attempt := c.Child("ApiCallAttempt")
	attempt.Record(HTTPStatusCode, 200)

	when := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	col := c.CollectAt(when)

	if col.Name() != "ApiCall" {
		t.Errorf("expected name 'ApiCall', got %q", col.Name())
	}
	if !col.CreatedAt().Equal(when) {
		t.Errorf("expected creation time %v, got %v", when, col.CreatedAt())
	}
	if len(col.Records()) != 2 {
		t.Fatalf("expected 2 records, got %d", len(col.Records()))
	}
	if col.Records()[0].Metric != ServiceID {
		t.Error("expected first record to be ServiceID")
	}

	if len(col.Children()) != 1 {
		t.Fatalf("expected 1 child, got %d", len(col.Children()))
	}
	child := col.Children()[0]
	if child.Name() != "ApiCallAttempt" {
		t.Errorf("expected child name 'ApiCallAttempt', got %q", child.Name())
	}
	if !child.CreatedAt().Equal(when) {
		t.Error("child should share the root creation time")
	}
	if len(child.Records()) != 1 || child.Records()[0].Metric != HTTPStatusCode {
		t.Error("expected child to carry the HTTPStatusCode record")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c := NewCollector("ApiCall")
	c.Record(RetryCount, 1)

	col := c.Collect()
	c.Record(RetryCount, 2)

	if len(col.Records()) != 1 {
		t.Errorf("snapshot should not observe later records, got %d", len(col.Records()))
	}
}

func TestMetricCategories(t *testing.T) {
	enabled := map[Category]struct{}{CategoryCore: {}}

	if !APICallDuration.InAnyCategory(enabled) {
		t.Error("ApiCallDuration should match the core category")
	}
	if HTTPStatusCode.InAnyCategory(enabled) {
		t.Error("HttpStatusCode should not match the core category")
	}

	custom := New("GameTick", KindNumber, CategoryCustom, CategoryCore)
	if !custom.InAnyCategory(enabled) {
		t.Error("multi-category metric should match when any category is enabled")
	}
}

func TestMetricKinds(t *testing.T) {
	if ServiceID.Kind() != KindString {
		t.Error("ServiceId should be a string metric")
	}
	if APICallDuration.Kind() != KindDuration {
		t.Error("ApiCallDuration should be a duration metric")
	}
	if RetryCount.Kind() != KindNumber {
		t.Error("RetryCount should be a number metric")
	}
}
