package domain

import "testing"

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleStudent, RoleStudent, true},
		{RoleStudent, RoleInstructor, false},
		{RoleInstructor, RoleInstructor, true},
		{RoleAdmin, RoleInstructor, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{Role("guest"), RoleStudent, false},
		{Role(""), Role(""), false},
	}
	for _, c := range cases {
		if got := c.role.AtLeast(c.min); got != c.want {
			t.Fatalf("%q.AtLeast(%q) = %v, want %v", c.role, c.min, got, c.want)
		}
	}
}

func TestActorCanManage(t *testing.T) {
	owner := "instructor-1"
	cases := []struct {
		actor Actor
		want  bool
	}{
		{Actor{UserID: owner, Role: RoleInstructor}, true},
		{Actor{UserID: "other", Role: RoleInstructor}, false},
		{Actor{UserID: owner, Role: RoleStudent}, false},
		{Actor{UserID: "admin", Role: RoleAdmin}, true},
		{Actor{UserID: "root", Role: RoleSuperAdmin}, true},
	}
	for _, c := range cases {
		if got := c.actor.CanManage(owner); got != c.want {
			t.Fatalf("%+v.CanManage = %v, want %v", c.actor, got, c.want)
		}
	}
}
