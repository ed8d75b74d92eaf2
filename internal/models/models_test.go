package models

import "testing"

func TestNewIDMonotonic(t *testing.T) {
	prev := NewID()
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id <= prev {
			t.Fatalf("ids must be strictly increasing: %d then %d", prev, id)
		}
		prev = id
	}
}

func TestNewFriendshipNormalizes(t *testing.T) {
	a := NewFriendship(2, 1)
	b := NewFriendship(1, 2)
	if a != b {
		t.Errorf("(2,1) and (1,2) should be the same edge, got %+v and %+v", a, b)
	}
	if a.User1ID != 1 || a.User2ID != 2 {
		t.Errorf("edge not normalized: %+v", a)
	}
	if !a.Involves(1) || !a.Involves(2) || a.Involves(3) {
		t.Errorf("Involves wrong for %+v", a)
	}
}

func TestAvatarForRole(t *testing.T) {
	if AvatarForRole(RoleAdmin) != "👑" {
		t.Errorf("unexpected admin avatar")
	}
	if AvatarForRole(Role("mystery")) != "👤" {
		t.Errorf("unknown roles get the fallback avatar")
	}
}
