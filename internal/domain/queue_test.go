package domain

import (
	"testing"
	"time"
)

func TestCloneIsIndependent(t *testing.T) {
	q := &Queue{
		ID:          "q1",
		Members:     []string{"u1", "u2"},
		MemberRoles: map[string]string{"u1": "r1"},
		Roles:       []*GameRole{{ID: "r1", Name: "Tank", MaxPlayers: 1, Players: []string{"u1"}}},
	}
	c := q.Clone()

	q.Members[0] = "hacked"
	q.MemberRoles["u1"] = "hacked"
	q.Roles[0].Players[0] = "hacked"

	if c.Members[0] != "u1" {
		t.Errorf("Members compartidos: %v", c.Members)
	}
	if c.MemberRoles["u1"] != "r1" {
		t.Errorf("MemberRoles compartido: %v", c.MemberRoles)
	}
	if c.Roles[0].Players[0] != "u1" {
		t.Errorf("Roles compartidos: %v", c.Roles[0].Players)
	}
}

func TestSearchMatches(t *testing.T) {
	mk := func(game, mode string) *Queue { return &Queue{GuildID: "g1", Game: game, Mode: mode} }
	cases := []struct {
		name   string
		search StandingSearch
		queue  *Queue
		want   bool
	}{
		{"substring directo", StandingSearch{GuildID: "g1", Game: "valorant"}, mk("Valorant Custom", ""), true},
		{"substring inverso", StandingSearch{GuildID: "g1", Game: "valorant custom"}, mk("Valorant", ""), true},
		{"modo compatible", StandingSearch{GuildID: "g1", Game: "valorant", Mode: "ranked"}, mk("Valorant", "Ranked Duo"), true},
		{"modo pedido, cola sin modo", StandingSearch{GuildID: "g1", Game: "valorant", Mode: "ranked"}, mk("Valorant", ""), false},
		{"sin modo pedido, cualquier modo", StandingSearch{GuildID: "g1", Game: "valorant"}, mk("Valorant", "Swiftplay"), true},
		{"otro juego", StandingSearch{GuildID: "g1", Game: "dota"}, mk("Valorant", ""), false},
		{"otro guild", StandingSearch{GuildID: "g2", Game: "valorant"}, mk("Valorant", ""), false},
	}
	for _, tc := range cases {
		if got := tc.search.Matches(tc.queue); got != tc.want {
			t.Errorf("%s: Matches = %v, quería %v", tc.name, got, tc.want)
		}
	}
}

func TestQueueIDHasEntropyParts(t *testing.T) {
	at := time.Unix(0, 1234)
	id := QueueID("g1", "u1", at)
	if id != "g1-1234-u1" {
		t.Errorf("QueueID = %q", id)
	}
}
