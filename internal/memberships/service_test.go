package memberships

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pozial/pozial-api/internal/platform/httpx"
	"github.com/pozial/pozial-api/internal/shared"
)

type stubMembershipRepo struct {
	byID      map[string]*Membership
	byPair    map[string]*Membership
	created   []Membership
	updatedTo *string
}

func newStubMembershipRepo(memberships ...Membership) *stubMembershipRepo {
	repo := &stubMembershipRepo{
		byID:   make(map[string]*Membership),
		byPair: make(map[string]*Membership),
	}
	for i := range memberships {
		m := memberships[i]
		repo.byID[m.ID] = &m
		repo.byPair[m.UserID+":"+m.OrganizationID] = &m
	}
	return repo
}

func (r *stubMembershipRepo) FindByID(ctx context.Context, id string) (*Membership, error) {
	return r.byID[id], nil
}

func (r *stubMembershipRepo) FindByIDWithDetails(ctx context.Context, id string) (*MembershipWithDetails, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &MembershipWithDetails{Membership: *m, User: UserSummary{ID: m.UserID}}, nil
}

func (r *stubMembershipRepo) FindByUserAndOrg(ctx context.Context, userID, organizationID string) (*Membership, error) {
	return r.byPair[userID+":"+organizationID], nil
}

func (r *stubMembershipRepo) ListByOrganization(ctx context.Context, organizationID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	return nil, 0, nil
}

func (r *stubMembershipRepo) ListByUser(ctx context.Context, userID string, page shared.PageRequest) ([]MembershipWithDetails, int, error) {
	return nil, 0, nil
}

func (r *stubMembershipRepo) Create(ctx context.Context, m Membership) (Membership, error) {
	r.created = append(r.created, m)
	r.byID[m.ID] = &m
	r.byPair[m.UserID+":"+m.OrganizationID] = &m
	return m, nil
}

func (r *stubMembershipRepo) Update(ctx context.Context, id string, roleID *string) (*Membership, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	m.RoleID = roleID
	r.updatedTo = roleID
	return m, nil
}

func (r *stubMembershipRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := r.byID[id]; !ok {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

func TestCreateMembership(t *testing.T) {
	repo := newStubMembershipRepo()
	svc := NewService(repo)

	roleID := "role-1"
	m, err := svc.CreateMembership(context.Background(), "user-1", "org-1", &roleID)
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, "user-1", m.UserID)
	require.Equal(t, &roleID, m.RoleID)
}

func TestCreateMembershipRejectsDuplicate(t *testing.T) {
	repo := newStubMembershipRepo(Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1"})
	svc := NewService(repo)

	_, err := svc.CreateMembership(context.Background(), "user-1", "org-1", nil)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Empty(t, repo.created)
}

func TestUpdateMembershipClearsRole(t *testing.T) {
	roleID := "role-1"
	repo := newStubMembershipRepo(Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1", RoleID: &roleID})
	svc := NewService(repo)

	m, err := svc.UpdateMembership(context.Background(), "m-1", nil)
	require.NoError(t, err)
	require.Nil(t, m.RoleID)
}

func TestUpdateMembershipNotFound(t *testing.T) {
	svc := NewService(newStubMembershipRepo())
	_, err := svc.UpdateMembership(context.Background(), "missing", nil)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteMembershipNotFound(t *testing.T) {
	svc := NewService(newStubMembershipRepo())
	err := svc.DeleteMembership(context.Background(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGetMembershipIncludesDetails(t *testing.T) {
	repo := newStubMembershipRepo(Membership{ID: "m-1", UserID: "user-1", OrganizationID: "org-1"})
	svc := NewService(repo)

	m, err := svc.GetMembership(context.Background(), "m-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", m.User.ID)

	_, err = svc.GetMembership(context.Background(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
