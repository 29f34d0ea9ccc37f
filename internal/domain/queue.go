package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoleRequirement es el tri-estado global de roles de una cola.
// Lo fija el primer rol agregado y no cambia más.
type RoleRequirement int

const (
	RoleRequirementUnset RoleRequirement = iota
	RoleRequirementRequired
	RoleRequirementOptional
)

func (r RoleRequirement) String() string {
	switch r {
	case RoleRequirementRequired:
		return "required"
	case RoleRequirementOptional:
		return "optional"
	default:
		return "unset"
	}
}

// GameRole es un sub-cupo con capacidad propia dentro de una cola
// (ej: "Tank" x1, "Support" x2). El ID es estable; la posición solo
// se deriva al renderizar.
type GameRole struct {
	ID         string
	Name       string
	MaxPlayers int
	Players    []string // discord user ids, en orden de asignación
}

func (gr *GameRole) IsFull() bool { return len(gr.Players) >= gr.MaxPlayers }

// Queue es una búsqueda de N jugadores para un juego/modo.
type Queue struct {
	ID            string
	GuildID       string
	OwnerID       string
	Game          string
	Mode          string
	PlayersNeeded int
	Members       []string // incluye al owner, en orden de entrada
	Description   string

	// Rol de Discord 1:1 con la cola (agrupación del lado de la
	// plataforma); vacío si no se pudo crear.
	DiscordRoleID string

	Roles           []*GameRole
	MemberRoles     map[string]string // userID -> GameRole.ID
	RoleRequirement RoleRequirement

	CreatedAt time.Time
	EndsAt    time.Time
	MaxEndsAt time.Time // techo duro, fijado en la creación
}

// QueueID arma el id opaco de una cola: guild + timestamp + creador
// alcanza como entropía (una persona no crea dos colas en el mismo ns).
func QueueID(guildID, ownerID string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%s", guildID, at.UnixNano(), ownerID)
}

func (q *Queue) IsFull() bool { return len(q.Members) >= q.PlayersNeeded }

func (q *Queue) HasMember(userID string) bool {
	for _, m := range q.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// RoleByID devuelve el rol y su posición actual (para render), o nil.
func (q *Queue) RoleByID(id string) (*GameRole, int) {
	for i, r := range q.Roles {
		if r.ID == id {
			return r, i
		}
	}
	return nil, -1
}

func (q *Queue) RoleByName(name string) *GameRole {
	for _, r := range q.Roles {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return nil
}

// HasRoleCapacity dice si algún rol tiene cupo libre. Con requirement
// "required" y todo lleno, el join directo se rechaza.
func (q *Queue) HasRoleCapacity() bool {
	for _, r := range q.Roles {
		if !r.IsFull() {
			return true
		}
	}
	return false
}

// Clone devuelve una copia profunda. El registry entrega clones a la
// capa de presentación y al store para no compartir slices mutables
// fuera del lock.
func (q *Queue) Clone() Queue {
	c := *q
	c.Members = append([]string(nil), q.Members...)
	c.MemberRoles = make(map[string]string, len(q.MemberRoles))
	for k, v := range q.MemberRoles {
		c.MemberRoles[k] = v
	}
	c.Roles = make([]*GameRole, len(q.Roles))
	for i, r := range q.Roles {
		rc := *r
		rc.Players = append([]string(nil), r.Players...)
		c.Roles[i] = &rc
	}
	return c
}
