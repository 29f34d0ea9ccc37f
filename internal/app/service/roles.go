package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jose-valero/lfg-queue-bot/internal/domain"
)

const (
	maxRolesPerQueue  = 5
	maxRoleCapacity   = 10
	minRoleNameLength = 2
)

// AddRole agrega un game role a la cola. Si todavía nadie decidió si
// los roles son obligatorios u opcionales (primer rol), rechaza con
// ErrRequirementNotSet: el boundary captura la decisión y vuelve por
// SetRequirementAndAddRole, que commitea las dos cosas juntas.
func (r *Registry) AddRole(ctx context.Context, queueID, name string, maxPlayers int) (domain.GameRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	if !ok {
		return domain.GameRole{}, ErrNotFound
	}
	if q.RoleRequirement == domain.RoleRequirementUnset {
		return domain.GameRole{}, ErrRequirementNotSet
	}
	return r.addRoleLocked(q, name, maxPlayers)
}

// SetRequirementAndAddRole fija el tri-estado global y agrega el
// primer rol, atómico. La decisión del primer rol ata a todos los que
// vengan después; si otro llegó antes (carrera de dos "primeros"),
// la decisión ya tomada gana y el rol se agrega igual.
func (r *Registry) SetRequirementAndAddRole(ctx context.Context, queueID string, required bool, name string, maxPlayers int) (domain.GameRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	if !ok {
		return domain.GameRole{}, ErrNotFound
	}
	role, err := r.addRoleLocked(q, name, maxPlayers)
	if err != nil {
		return domain.GameRole{}, err
	}
	if q.RoleRequirement == domain.RoleRequirementUnset {
		if required {
			q.RoleRequirement = domain.RoleRequirementRequired
		} else {
			q.RoleRequirement = domain.RoleRequirementOptional
		}
	}
	return role, nil
}

// RemoveRole borra un rol por su id estable. Los miembros asignados
// quedan sin rol (no se los reasigna a ningún otro); el resto de los
// roles no se toca, justamente porque la identidad no es posicional.
func (r *Registry) RemoveRole(ctx context.Context, queueID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	if !ok {
		return ErrNotFound
	}
	role, idx := q.RoleByID(roleID)
	if role == nil {
		return ErrNotFound
	}
	q.Roles = append(q.Roles[:idx], q.Roles[idx+1:]...)
	for uid, rid := range q.MemberRoles {
		if rid == roleID {
			delete(q.MemberRoles, uid)
		}
	}
	return nil
}

// AssignRole asigna (o reasigna) el rol de un miembro. Un miembro
// tiene a lo sumo un rol: el anterior se libera primero.
func (r *Registry) AssignRole(ctx context.Context, queueID, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	if !ok {
		return ErrNotFound
	}
	if !q.HasMember(userID) {
		return ErrNotMember
	}
	role, _ := q.RoleByID(roleID)
	if role == nil {
		return ErrNotFound
	}
	if q.MemberRoles[userID] == roleID {
		return nil // ya lo tiene
	}
	if role.IsFull() {
		return ErrRoleFull
	}
	r.unassignRoleLocked(q, userID)
	role.Players = append(role.Players, userID)
	q.MemberRoles[userID] = roleID
	return nil
}

// JoinWithRole es el compuesto atómico membresía + rol que usa el
// flujo de roles obligatorios. Entre elegir el rol en el select y
// confirmarlo pasa un round-trip de interacción, así que TODO se
// revalida acá, en el momento del commit.
func (r *Registry) JoinWithRole(ctx context.Context, queueID, userID, roleID string) (JoinResult, error) {
	r.mu.Lock()
	q, ok := r.queues[queueID]
	if !ok {
		r.mu.Unlock()
		return JoinResult{}, ErrNotFound
	}
	if _, taken := r.byUser[userID]; taken {
		r.mu.Unlock()
		return JoinResult{}, ErrAlreadyInQueue
	}
	if q.IsFull() {
		r.mu.Unlock()
		return JoinResult{}, ErrFull
	}
	role, _ := q.RoleByID(roleID)
	if role == nil {
		r.mu.Unlock()
		return JoinResult{}, ErrNotFound
	}
	if role.IsFull() {
		r.mu.Unlock()
		return JoinResult{}, ErrRoleFull
	}
	q.Members = append(q.Members, userID)
	r.byUser[userID] = q.ID
	role.Players = append(role.Players, userID)
	q.MemberRoles[userID] = roleID
	res := JoinResult{Queue: q.Clone(), BecameFull: q.IsFull()}
	r.mu.Unlock()

	r.store.SaveQueue(ctx, res.Queue)
	if res.Queue.DiscordRoleID != "" {
		r.roles.Grant(res.Queue.GuildID, userID, res.Queue.DiscordRoleID)
	}
	if res.BecameFull {
		r.notify.QueueFull(res.Queue)
	}
	return res, nil
}

// JoinWithRoleFromSearch cierra el circuito del notifier cuando la
// cola exige rol: mismo commit que JoinWithRole y, si entra, la
// búsqueda se consume (igual que JoinFromSearch).
func (r *Registry) JoinWithRoleFromSearch(ctx context.Context, queueID, userID, roleID string) (JoinResult, error) {
	res, err := r.JoinWithRole(ctx, queueID, userID, roleID)
	if err != nil {
		return res, err
	}
	r.searches.Consume(ctx, userID)
	return res, nil
}

// ---------- internals ----------

func (r *Registry) addRoleLocked(q *domain.Queue, name string, maxPlayers int) (domain.GameRole, error) {
	name = strings.TrimSpace(name)
	if len(name) < minRoleNameLength {
		return domain.GameRole{}, ErrInvalidName
	}
	if maxPlayers < 1 || maxPlayers > maxRoleCapacity {
		return domain.GameRole{}, ErrOutOfRange
	}
	if len(q.Roles) >= maxRolesPerQueue {
		return domain.GameRole{}, ErrTooManyRoles
	}
	if q.RoleByName(name) != nil {
		return domain.GameRole{}, ErrDuplicateRole
	}
	role := &domain.GameRole{
		ID:         uuid.NewString(),
		Name:       name,
		MaxPlayers: maxPlayers,
	}
	q.Roles = append(q.Roles, role)
	rc := *role
	rc.Players = append([]string(nil), role.Players...)
	return rc, nil
}

// unassignRoleLocked libera el rol del user, si tenía.
func (r *Registry) unassignRoleLocked(q *domain.Queue, userID string) {
	rid, ok := q.MemberRoles[userID]
	if !ok {
		return
	}
	delete(q.MemberRoles, userID)
	if role, _ := q.RoleByID(rid); role != nil {
		removeString(&role.Players, userID)
	}
}
