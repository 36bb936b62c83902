package teams

import (
	"context"
	"strings"
	"testing"
)

// TestSpawnAssignsCyclingColors: teammates spawned in order get colors
// cycling through the palette, wrapping past its end.
func TestSpawnAssignsCyclingColors(t *testing.T) {
	reg := NewRegistry(t.TempDir(), nil, nil)
	if _, err := reg.CreateTeam(context.Background(), "alpha"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	var spawned []*Teammate
	for i := 0; i < len(palette)+2; i++ {
		mate, err := reg.Spawn(context.Background(), "alpha", nameFor(i), "", "prompt", nil)
		if err != nil {
			t.Fatalf("Spawn(%d): %v", i, err)
		}
		spawned = append(spawned, mate)
	}

	for i, mate := range spawned {
		want := palette[i%len(palette)]
		if mate.Color != want {
			t.Errorf("member %d: color = %q, want %q", i, mate.Color, want)
		}
	}
}

func nameFor(i int) string {
	return string(rune('a' + i))
}

// TestShutdownHandshake exercises the full two-phase protocol:
// RequestShutdown issues a request_id, the teammate drains it from its
// inbox, and its shutdown_response lands in the lead's inbox echoing the
// same request_id.
func TestShutdownHandshake(t *testing.T) {
	reg := NewRegistry(t.TempDir(), nil, nil)
	team, err := reg.CreateTeam(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	mate, err := team.addMember("bob")
	if err != nil {
		t.Fatalf("addMember: %v", err)
	}

	reqID, err := reg.RequestShutdown(context.Background(), "alpha", "bob")
	if err != nil {
		t.Fatalf("RequestShutdown: %v", err)
	}
	if reqID == "" {
		t.Fatal("expected a non-empty request id")
	}

	drained, err := team.inboxFor("bob").drain()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	msg, ok := findShutdownRequest(drained)
	if !ok || msg.RequestID != reqID {
		t.Fatalf("expected shutdown_request with id %s, got %+v", reqID, drained)
	}

	respond := Message{
		Type:      MessageKindShutdownResponse,
		Sender:    mate.AgentID,
		Recipient: "lead",
		Content:   "Shutdown acknowledged.",
		RequestID: msg.RequestID,
	}
	if err := team.inboxFor("lead").append(respond); err != nil {
		t.Fatalf("append response: %v", err)
	}
	mate.SetStatus(StatusShutdown)

	leadMsgs, err := team.inboxFor("lead").drain()
	if err != nil {
		t.Fatalf("drain lead inbox: %v", err)
	}
	if len(leadMsgs) != 1 || leadMsgs[0].RequestID != reqID || leadMsgs[0].Type != MessageKindShutdownResponse {
		t.Fatalf("unexpected lead inbox contents: %+v", leadMsgs)
	}

	reg.AcknowledgeShutdownResponse(reqID)
	if mate.GetStatus() != StatusShutdown {
		t.Fatalf("expected teammate status shutdown, got %s", mate.GetStatus())
	}
}

// TestDeleteTeamForcesShutdownEvenWithoutResponse is the safety-net
// half of the shutdown protocol: DeleteTeam flips every member to
// shutdown regardless of whether a shutdown_response was ever observed.
func TestDeleteTeamForcesShutdownEvenWithoutResponse(t *testing.T) {
	reg := NewRegistry(t.TempDir(), nil, nil)
	team, _ := reg.CreateTeam(context.Background(), "alpha")
	alpha, _ := team.addMember("alpha")
	beta, _ := team.addMember("beta")

	status, err := reg.DeleteTeam(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if !strings.Contains(status, "deleted") {
		t.Fatalf("expected status to mention deletion, got %q", status)
	}
	for _, mate := range []*Teammate{alpha, beta} {
		if mate.GetStatus() != StatusShutdown {
			t.Fatalf("expected forced shutdown for %s, got %s", mate.Name, mate.GetStatus())
		}
		msgs, err := team.inboxFor(mate.Name).drain()
		if err != nil {
			t.Fatalf("drain %s: %v", mate.Name, err)
		}
		if _, ok := findShutdownRequest(msgs); !ok {
			t.Fatalf("expected a shutdown_request in %s's inbox, got %+v", mate.Name, msgs)
		}
	}
	if _, ok := reg.Get("alpha"); ok {
		t.Fatal("expected team removed from registry after delete")
	}

	// A second delete of the same team is not an error.
	if _, err := reg.DeleteTeam(context.Background(), "alpha"); err != nil {
		t.Fatalf("second DeleteTeam: %v", err)
	}
}

// TestTaskLifecycleAcrossTeammates exercises create -> claim -> complete
// -> dependent unblocked end to end through the Registry/Board path.
func TestTaskLifecycleAcrossTeammates(t *testing.T) {
	reg := NewRegistry(t.TempDir(), nil, nil)
	team, _ := reg.CreateTeam(context.Background(), "alpha")
	team.addMember("bob")
	team.addMember("carol")

	setup, _ := team.Board.Create("set up infra", "", "lead@alpha")
	build, _ := team.Board.Create("build feature", "", "lead@alpha")
	team.Board.Update(build, TaskUpdate{AddBlockedBy: []string{setup}})

	unblocked, _ := team.Board.Unblocked()
	if len(unblocked) != 1 || unblocked[0].ID != setup {
		t.Fatalf("expected only setup unblocked, got %+v", unblocked)
	}

	if _, err := team.Board.Claim(setup, "bob@alpha"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := reg.CompleteTask(context.Background(), "alpha", setup, "bob"); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	unblocked, _ = team.Board.Unblocked()
	if len(unblocked) != 1 || unblocked[0].ID != build {
		t.Fatalf("expected build unblocked after setup completes, got %+v", unblocked)
	}

	if _, err := team.Board.Claim(build, "carol@alpha"); err != nil {
		t.Fatalf("Claim build: %v", err)
	}
}
