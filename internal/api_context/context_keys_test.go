package api_context

import (
	"context"
	"testing"

	"github.com/fhuszti/media-pipeline/internal/uuid"
)

func TestMediaID(t *testing.T) {
	ctx := context.Background()
	if _, ok := IDFromContext(ctx); ok {
		t.Fatal("empty context reported a media id")
	}
	id := uuid.NewUUID()
	got, ok := IDFromContext(WithMediaID(ctx, id))
	if !ok || got != id {
		t.Errorf("IDFromContext = %s, %v; want %s", got, ok, id)
	}
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()
	if _, ok := PrincipalFromContext(ctx); ok {
		t.Fatal("empty context reported a principal")
	}
	if _, ok := PrincipalFromContext(WithPrincipal(ctx, Principal{Roles: []string{"admin"}})); ok {
		t.Error("principal without subject reported as authenticated")
	}

	p, ok := PrincipalFromContext(WithPrincipal(ctx, Principal{UserID: "u1", Roles: []string{"dst", "admin"}}))
	if !ok || p.UserID != "u1" {
		t.Fatalf("PrincipalFromContext = %+v, %v", p, ok)
	}
	if !p.HasRole("admin") || p.HasRole("root") {
		t.Errorf("HasRole mismatch for roles %v", p.Roles)
	}
}
