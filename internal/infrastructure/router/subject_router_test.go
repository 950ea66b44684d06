package router

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/pkg/logger"
)

type prefixHandler struct {
	name   string
	prefix string
}

func (h prefixHandler) CanHandle(subject string) bool { return strings.HasPrefix(subject, h.prefix) }
func (h prefixHandler) Name() string                  { return h.name }
func (h prefixHandler) Process(context.Context, *entity.Email) (entity.UpsertCounts, error) {
	return entity.UpsertCounts{}, nil
}

func TestSubjectRouter_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := NewSubjectRouter(logger.NewNop())
	r.Register(prefixHandler{name: "crew-hours", prefix: "RolCrTot"})
	r.Register(prefixHandler{name: "any-rol", prefix: "Rol"})

	require.Equal(t, "crew-hours", r.GetHandler("RolCrTotReport 2026-01-30").Name())
	require.Equal(t, "any-rol", r.GetHandler("RolStandby export").Name())
	require.Nil(t, r.GetHandler("Lunch on Friday"))
}
