package risk

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/bantai/bantai/internal/common/errors"
)

type seedUser struct {
	userID        string
	username      string
	email         string
	homeLocations string
	commonDevices string
}

var sampleUsers = []seedUser{
	{"U_1023", "juan_dela_cruz_123", "juan@email.com", `["Manila", "Makati"]`, `["mobile"]`},
	{"U_2045", "maria_santos_456", "maria@email.com", `["Cebu", "Lapu-Lapu"]`, `["desktop", "mobile"]`},
	{"U_3311", "jose_rizal_789", "jose@email.com", `["Davao", "Tagum"]`, `["mobile"]`},
	{"U_0789", "ana_garcia_012", "ana@email.com", `["Singapore"]`, `["desktop"]`},
	{"U_5550", "carlos_reyes_345", "carlos@email.com", `["Cebu", "Mandaue"]`, `["tablet", "mobile"]`},
	{"U_7777", "sarah_lim_678", "sarah@email.com", `["Dubai", "Manila"]`, `["mobile"]`},
	{"U_8888", "pedro_santos_901", "pedro@email.com", `["Iloilo", "Bacolod"]`, `["desktop"]`},
}

// SeedSampleUsers inserts the baseline demo users. Existing rows are left
// alone, so seeding is safe to run on every start in development.
func (s *Store) SeedSampleUsers(ctx context.Context) error {
	for _, u := range sampleUsers {
		_, err := s.db.Pool.Exec(ctx,
			`INSERT INTO users (user_id, username, email, home_locations, common_devices)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (user_id) DO NOTHING`,
			u.userID, u.username, u.email, u.homeLocations, u.commonDevices)
		if err != nil {
			return apperrors.Persistence("seed sample users", err)
		}
	}
	s.logger.Info("seeded sample users", zap.Int("count", len(sampleUsers)))
	return nil
}
