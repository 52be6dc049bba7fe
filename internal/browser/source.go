package browser

import (
	"context"

	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/sources/portal"
	"github.com/MrSnakeDoc/duewatch/internal/utils"
)

// PortalSource runs one login and table fetch per call, closing the
// browser afterwards.
type PortalSource struct {
	client   *Client
	username string
	password string
	log      logger.Logger
}

func NewPortalSource(client *Client, username, password string, log logger.Logger) *PortalSource {
	return &PortalSource{client: client, username: username, password: password, log: log}
}

// FetchRows authenticates and returns the raw rows of the activity table.
func (s *PortalSource) FetchRows(ctx context.Context) ([]portal.RawRow, error) {
	session, err := s.client.Authenticate(ctx, s.username, s.password)
	if err != nil {
		return nil, err
	}
	defer utils.MustClose(session, "browser", s.log)

	return s.client.FetchRawRows(ctx, session)
}
