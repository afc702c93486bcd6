package repository

import (
	"strings"
	"testing"
	"time"

	"FlightFare/internal/domain/models"
)

func sampleEvent(id string) *models.PredictionEvent {
	return &models.PredictionEvent{
		ID:              id,
		RequestID:       "req-1",
		Kind:            models.KindPoint,
		Source:          models.SourceHTTP,
		Airline:         "Vistara",
		SourceCity:      "Delhi",
		DestinationCity: "Mumbai",
		Class:           "Economy",
		Stops:           "zero",
		Duration:        2.17,
		DaysLeft:        15,
		Price:           5953.456,
		Points:          1,
		Model:           "xgboost",
		CreatedAt:       time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertQuerySkipsInvalidRows(t *testing.T) {
	q, args := insertQuery("flightfare.predictions", []*models.PredictionEvent{
		sampleEvent("a"), nil, {ID: ""}, sampleEvent("b"),
	})
	if got := strings.Count(q, "(?,"); got != 2 {
		t.Fatalf("value groups = %d, want 2: %s", got, q)
	}
	if len(args) != 30 {
		t.Fatalf("args = %d, want 30", len(args))
	}
	if !strings.HasPrefix(q, "INSERT INTO flightfare.predictions (id, request_id,") {
		t.Fatalf("unexpected query prefix: %s", q)
	}
	if args[2] != "point" || args[3] != "http" {
		t.Fatalf("kind/source args = %v %v", args[2], args[3])
	}
}

func TestPredictionSchema(t *testing.T) {
	stmts := PredictionSchema("flightfare")
	if len(stmts) != 2 {
		t.Fatalf("statements = %d", len(stmts))
	}
	if !strings.Contains(stmts[1], "flightfare.predictions") {
		t.Fatalf("table statement does not target flightfare.predictions: %s", stmts[1])
	}
	cols := strings.Split(predictionColumns, ", ")
	for _, c := range cols {
		if !strings.Contains(stmts[1], c) {
			t.Errorf("column %s missing from DDL", c)
		}
	}
}

func TestEventPayload(t *testing.T) {
	p := eventPayload(sampleEvent("a"))
	if p["price"] != 5953.46 {
		t.Fatalf("price = %v, want rounded 5953.46", p["price"])
	}
	if p["ts"] != int64(1759320000000) {
		t.Fatalf("ts = %v", p["ts"])
	}
}
