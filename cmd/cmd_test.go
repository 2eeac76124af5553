package cmd

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umoc-outing-club/gear-locker/internal/core/events"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("loadConfig", func() {
	It("reads the development config.yml", func() {
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")

		cfg, err := loadConfig("..")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Database.QueryTimeout).To(Equal(5 * time.Second))
		Expect(cfg.Security.RefreshTokenDuration).To(Equal(168 * time.Hour))
		Expect(cfg.Custody.RequireLeaderRole).To(BeTrue())
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})

	It("reads the environment in container deployments", func() {
		GinkgoT().Setenv("DOCKER_ENV", "true")
		GinkgoT().Setenv("DATABASE_URL", "postgres://gear@db:5432/gear_locker")
		GinkgoT().Setenv("ACCESS_TOKEN_SECRET", "access-secret-that-is-long-enough-000")
		GinkgoT().Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-that-is-long-enough-00")
		GinkgoT().Setenv("HTTP_PORT", "9090")

		cfg, err := loadConfig("does-not-exist")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Database.GetDSN()).To(Equal("postgres://gear@db:5432/gear_locker"))
	})

	It("refuses an environment without token secrets", func() {
		GinkgoT().Setenv("DOCKER_ENV", "true")
		GinkgoT().Setenv("DATABASE_URL", "postgres://gear@db:5432/gear_locker")
		GinkgoT().Setenv("ACCESS_TOKEN_SECRET", "")
		GinkgoT().Setenv("REFRESH_TOKEN_SECRET", "")

		_, err := loadConfig(".")
		Expect(err).To(MatchError(ContainSubstring("security config")))
	})

	It("fails when no config.yml is present", func() {
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")

		_, err := loadConfig(GinkgoT().TempDir())
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("event publish", func() {
	It("publishes each known event type", func() {
		for _, eventType := range []string{
			events.EventTypeGearCheckedOut,
			events.EventTypeGearCheckedIn,
			events.EventTypeGearChanged,
		} {
			Expect(publishTestEvent(context.Background(), eventType)).To(Succeed())
		}
	})

	It("rejects unknown event types", func() {
		Expect(publishTestEvent(context.Background(), "gear.lost")).To(MatchError(ContainSubstring("unknown event type")))
	})
})

var _ = Describe("root command", func() {
	It("registers every subcommand", func() {
		names := []string{}
		for _, c := range rootCmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("server", "migrate", "seed", "event"))
	})
})
