package store

import "context"

// MainGroupFolder is the special, privileged group folder.
const MainGroupFolder = "main"

// ExtraMount is an additional host directory mounted into a group's sandbox.
type ExtraMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// RegisteredGroup is one chat group the router will respond in.
type RegisteredGroup struct {
	JID       string
	Name      string
	Folder    string // stable filesystem-safe slug, unique
	Trigger   string // e.g. "@Alfred"
	AddedAt   int64
	ExtraMounts []ExtraMount

	// AdmissionRule is an optional CEL expression gating non-main groups
	// beyond the plain trigger-prefix match. See internal/intake/admission.go.
	AdmissionRule string
}

// IsMain reports whether this group is the privileged "main" group.
func (g *RegisteredGroup) IsMain() bool {
	return g.Folder == MainGroupFolder
}

// CreateGroup is the write condition for registering a new group.
type CreateGroup struct {
	JID           string
	Name          string
	Folder        string
	Trigger       string
	AddedAt       int64
	ExtraMounts   []ExtraMount
	AdmissionRule string
}

// FindGroup is the find condition for RegisteredGroup.
type FindGroup struct {
	JID    *string
	Folder *string
}

func (s *Store) RegisterGroup(ctx context.Context, create *CreateGroup) (*RegisteredGroup, error) {
	return s.driver.RegisterGroup(ctx, create)
}

func (s *Store) ListGroups(ctx context.Context) ([]*RegisteredGroup, error) {
	return s.driver.ListGroups(ctx)
}

func (s *Store) GetGroup(ctx context.Context, find *FindGroup) (*RegisteredGroup, error) {
	return s.driver.GetGroup(ctx, find)
}
