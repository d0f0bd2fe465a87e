package identity

import (
	"context"
	"testing"
	"time"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RoutesByRole(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	svc := NewService(central, nil, time.Minute)

	member := testutil.CreateMember(t, tc.DB, "amira", "Amira", "Haddad")
	staff := testutil.CreateStaff(t, central, "mr.lee", models.RoleStaff, tc.Key)

	// Same numeric id in both spaces.
	require.Equal(t, member.ID, staff.ID)

	u, err := svc.Resolve(ctx, tc, member)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "amira", u.Handle)
	assert.Equal(t, models.RoleMember, u.Role)

	u, err = svc.Resolve(ctx, tc, staff)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "mr.lee", u.Handle)
	assert.Equal(t, models.RoleStaff, u.Role)
}

func TestResolve_MissingIsNil(t *testing.T) {
	tc := testutil.NewTenant(t)
	svc := NewService(testutil.NewCentralDB(t), nil, time.Minute)

	u, err := svc.Resolve(context.Background(), tc, models.Ref(404, models.RoleMember))
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = svc.Resolve(context.Background(), tc, models.Ref(404, models.RoleAdmin))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestResolve_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	mr, rdb := testutil.NewRedis(t)
	svc := NewService(testutil.NewCentralDB(t), rdb, time.Minute)

	ref := testutil.CreateMember(t, tc.DB, "jonas", "Jonas", "Berg")
	_, err := svc.Resolve(ctx, tc, ref)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.IdentityKey(tc.Key, ref)))

	// Served from cache even after the row changes.
	require.NoError(t, tc.DB.Model(&models.Member{}).Where("id = ?", ref.ID).Update("first_name", "Changed").Error)
	u, err := svc.Resolve(ctx, tc, ref)
	require.NoError(t, err)
	assert.Equal(t, "Jonas", u.FirstName)

	svc.Invalidate(ctx, tc, ref)
	u, err = svc.Resolve(ctx, tc, ref)
	require.NoError(t, err)
	assert.Equal(t, "Changed", u.FirstName)
}

func TestResolveMany_MergesBothStores(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	_, rdb := testutil.NewRedis(t)
	svc := NewService(central, rdb, time.Minute)

	m1 := testutil.CreateMember(t, tc.DB, "amira", "Amira", "Haddad")
	m2 := testutil.CreateMember(t, tc.DB, "jonas", "Jonas", "Berg")
	s1 := testutil.CreateStaff(t, central, "principal", models.RoleAdmin, tc.Key)
	ghost := models.Ref(999, models.RoleStaff)

	// Warm one entry so the batch mixes cached and fetched refs.
	_, err := svc.Resolve(ctx, tc, m2)
	require.NoError(t, err)

	got, err := svc.ResolveMany(ctx, tc, []models.UserRef{m1, m2, s1, ghost, m1})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "amira", got[m1].Handle)
	assert.Equal(t, "jonas", got[m2].Handle)
	assert.Equal(t, "principal", got[s1].Handle)
	assert.Equal(t, models.RoleAdmin, got[s1].Role)
	assert.NotContains(t, got, ghost)
}

func TestFindByHandle_MembersFirstThenAssignedStaff(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	svc := NewService(central, nil, time.Minute)

	testutil.CreateMember(t, tc.DB, "sam", "Sam", "Member")
	testutil.CreateStaff(t, central, "sam", models.RoleStaff, tc.Key)
	testutil.CreateStaff(t, central, "coach", models.RoleStaff, tc.Key)
	testutil.CreateStaff(t, central, "outsider", models.RoleStaff, "other-school")

	u, err := svc.FindByHandle(ctx, tc, "SAM")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.RoleMember, u.Role)

	u, err = svc.FindByHandle(ctx, tc, "coach")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.RoleStaff, u.Role)

	u, err = svc.FindByHandle(ctx, tc, "outsider")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestListMembersRecipientsAndAdministrators(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	svc := NewService(central, nil, time.Minute)

	a := testutil.CreateMember(t, tc.DB, "alex", "Alex", "Doe")
	b := testutil.CreateMember(t, tc.DB, "bea", "Alfie", "Roe")
	st := testutil.CreateStaff(t, central, "alvarez", models.RoleStaff, tc.Key)
	ad := testutil.CreateStaff(t, central, "admin1", models.RoleAdmin, tc.Key)
	testutil.CreateStaff(t, central, "aldo", models.RoleAdmin, "elsewhere")

	cands, err := svc.ListMembers(ctx, tc, "al", 10)
	require.NoError(t, err)
	handles := make([]string, 0, len(cands))
	for _, c := range cands {
		handles = append(handles, c.Handle)
	}
	assert.Equal(t, []string{"alex", "bea", "alvarez"}, handles)

	limited, err := svc.ListMembers(ctx, tc, "al", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := svc.Recipients(ctx, tc)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.UserRef{a, b, st, ad}, all)

	admins, err := svc.Administrators(ctx, tc)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRef{ad}, admins)
}

func TestMentionable_ScopedToTenantAndRole(t *testing.T) {
	ctx := context.Background()
	tc := testutil.NewTenant(t)
	central := testutil.NewCentralDB(t)
	_, rdb := testutil.NewRedis(t)
	svc := NewService(central, rdb, time.Minute)

	member := testutil.CreateMember(t, tc.DB, "amira", "Amira", "Haddad")
	coach := testutil.CreateStaff(t, central, "coach", models.RoleStaff, tc.Key)
	outsider := testutil.CreateStaff(t, central, "outsider", models.RoleStaff, "other-school")

	// A cached summary must not make an unassigned account mentionable.
	u, err := svc.Resolve(ctx, tc, outsider)
	require.NoError(t, err)
	require.NotNil(t, u)

	tests := []struct {
		name string
		ref  models.UserRef
		want string
	}{
		{"member", member, "amira"},
		{"assigned staff", coach, "coach"},
		{"staff assigned elsewhere", outsider, ""},
		{"claimed admin role", models.Ref(coach.ID, models.RoleAdmin), ""},
		{"unknown member", models.Ref(404, models.RoleMember), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Mentionable(ctx, tc, tt.ref)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, u)
				return
			}
			require.NotNil(t, u)
			assert.Equal(t, tt.want, u.Handle)
			assert.Equal(t, tt.ref, u.Ref())
		})
	}
}
