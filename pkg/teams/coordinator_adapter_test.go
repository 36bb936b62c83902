package teams

import (
	"context"
	"testing"

	"github.com/coderunner/teamcore/pkg/tools"
)

func newTestAdapter(t *testing.T, teamName string) (*Registry, *RegistryAdapter) {
	t.Helper()
	reg := NewRegistry(t.TempDir(), nil, nil)
	if _, err := reg.CreateTeam(context.Background(), teamName); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return reg, &RegistryAdapter{Registry: reg, TeamName: teamName}
}

func TestAdapterCreateTeam(t *testing.T) {
	reg, _ := newTestAdapter(t, "alpha")
	adapter := &RegistryAdapter{Registry: reg, TeamName: "alpha"}

	info, err := adapter.CreateTeam(context.Background(), "beta")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if info.Name != "beta" {
		t.Errorf("unexpected team info: %+v", info)
	}
}

func TestAdapterSendMessageAndDrain(t *testing.T) {
	reg, adapter := newTestAdapter(t, "alpha")
	team, _ := reg.Get("alpha")
	if _, err := team.addMember("bob"); err != nil {
		t.Fatalf("addMember: %v", err)
	}

	if err := adapter.SendMessage(context.Background(), tools.TeamMessage{
		From: "lead", To: "bob", Content: "hello", Type: "message",
	}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	got, err := team.inboxFor("bob").drain()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("unexpected inbox contents: %+v", got)
	}
}

func TestAdapterSendMessageUnknownRecipient(t *testing.T) {
	_, adapter := newTestAdapter(t, "alpha")
	err := adapter.SendMessage(context.Background(), tools.TeamMessage{From: "lead", To: "ghost", Content: "hi", Type: "message"})
	if KindOf(err) != ErrRecipientNotFound {
		t.Fatalf("expected RecipientNotFound, got %v", err)
	}
}

func TestAdapterSendMessageUnknownType(t *testing.T) {
	reg, adapter := newTestAdapter(t, "alpha")
	team, _ := reg.Get("alpha")
	if _, err := team.addMember("bob"); err != nil {
		t.Fatalf("addMember: %v", err)
	}

	err := adapter.SendMessage(context.Background(), tools.TeamMessage{From: "lead", To: "bob", Content: "hi", Type: "carrier_pigeon"})
	if KindOf(err) != ErrInvalidInput {
		t.Fatalf("expected InvalidInput for unknown message type, got %v", err)
	}

	// Nothing may have been persisted.
	msgs, err := team.inboxFor("bob").drain()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("rejected message reached the inbox: %+v", msgs)
	}
}

func TestAdapterBroadcastExcludesSender(t *testing.T) {
	reg, adapter := newTestAdapter(t, "alpha")
	team, _ := reg.Get("alpha")
	for _, name := range []string{"bob", "carol", "dave"} {
		team.addMember(name)
	}

	if err := adapter.Broadcast(context.Background(), "bob", "standup", []string{"bob", "carol", "dave"}); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	bobMsgs, _ := team.inboxFor("bob").drain()
	if len(bobMsgs) != 0 {
		t.Fatalf("sender should not receive its own broadcast, got %+v", bobMsgs)
	}
	for _, name := range []string{"carol", "dave"} {
		msgs, _ := team.inboxFor(name).drain()
		if len(msgs) != 1 {
			t.Fatalf("expected %s to receive the broadcast, got %+v", name, msgs)
		}
	}
}

func TestAdapterGetMemberNames(t *testing.T) {
	reg, adapter := newTestAdapter(t, "alpha")
	team, _ := reg.Get("alpha")
	team.addMember("bob")
	team.addMember("carol")

	names := adapter.GetMemberNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 members, got %v", names)
	}
}

func TestAdapterCleanupDeletesTeam(t *testing.T) {
	reg, adapter := newTestAdapter(t, "alpha")

	if err := adapter.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, ok := reg.Get("alpha"); ok {
		t.Fatal("expected team to be removed from registry")
	}
}

var _ tools.TeamCoordinator = (*RegistryAdapter)(nil)
