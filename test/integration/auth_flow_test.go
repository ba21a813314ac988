// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

//go:build integration

// Package integration provides end-to-end integration tests for Aikotoba.
package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aikotoba/aikotoba/internal/auth"
	authpg "github.com/aikotoba/aikotoba/internal/auth/postgres"
	"github.com/aikotoba/aikotoba/internal/store"
)

const (
	testSigningSecret = "integration-test-secret-0123456789abcdef"
	testAccessTTL     = 15 * time.Minute
	testRefreshTTL    = 24 * time.Hour
	testPassword      = "Sup3r-Secret!"
)

// testEnv holds all the resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool

	accounts    *authpg.AccountRepository
	prefectures *authpg.PrefectureRepository
	tokens      *authpg.TokenRepository
	svc         *auth.Service
	sweeper     *auth.Sweeper
}

// setupTestEnv starts PostgreSQL, applies migrations, and wires a full
// auth stack against the real database.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	env := &testEnv{
		ctx:    ctx,
		cancel: cancel,
	}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("aikotoba_test"),
		postgres.WithUsername("aikotoba"),
		postgres.WithPassword("aikotoba"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.NewPool(ctx, connStr, 10*time.Second)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.accounts = authpg.NewAccountRepository(env.pool)
	env.prefectures = authpg.NewPrefectureRepository(env.pool)
	env.tokens = authpg.NewTokenRepository(env.pool)

	signer, err := auth.NewHS256Signer([]byte(testSigningSecret))
	if err != nil {
		env.cleanup()
		return nil, err
	}
	issuer, err := auth.NewIssuer(env.tokens, authpg.NewTransactor(env.pool), signer, testAccessTTL, testRefreshTTL)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.svc, err = auth.NewService(env.accounts, env.prefectures, env.tokens, auth.NewArgon2idHasher(), issuer)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.sweeper, err = auth.NewSweeper(env.tokens, time.Minute)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	return env, nil
}

// cleanup releases all test resources.
func (env *testEnv) cleanup() {
	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = env.container.Terminate(ctx)
	}
	env.cancel()
}

// registerParams returns valid registration input with a unique email.
func registerParams() auth.RegisterParams {
	mobile := "090-1234-5678"
	return auth.RegisterParams{
		Email:          fmt.Sprintf("%s@example.com", ulid.Make()),
		Name:           "integration",
		Password:       testPassword,
		MobileNumber:   &mobile,
		PostalCode:     "100-0001",
		PrefectureCode: 13,
		AddressDetails: "千代田区千代田1-1",
	}
}

var _ = Describe("Auth Flow", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		env.cleanup()
	})

	Describe("Registration", func() {
		It("persists a new account and resolves its prefecture", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(account.ID.Compare(ulid.ULID{})).NotTo(Equal(0))
			Expect(account.IsActive).To(BeTrue())
			Expect(account.PasswordHash).To(HavePrefix("$argon2id$"))

			stored, err := env.accounts.GetByEmail(env.ctx, params.Email)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(account.ID))
			Expect(stored.PrefectureCode).To(Equal(int16(13)))

			pref, err := env.svc.PrefectureByCode(env.ctx, stored.PrefectureCode)
			Expect(err).NotTo(HaveOccurred())
			Expect(pref.Name).To(Equal("東京都"))
		})

		It("rejects a duplicate email", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Register(env.ctx, params)
			Expect(err).To(MatchError(auth.ErrConflict))
		})

		It("rejects a weak password before touching the database", func() {
			params := registerParams()
			params.Password = "lowercase only"
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).To(MatchError(auth.ErrValidation))

			_, err = env.accounts.GetByEmail(env.ctx, params.Email)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Login and authorization", func() {
		It("issues a token pair and stamps the login time", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(account.LoggedInAt).To(BeNil())

			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccountID).To(Equal(account.ID))
			Expect(pair.AccessExpiresAt.Before(pair.RefreshExpiresAt)).To(BeTrue())

			accountID, err := env.svc.Authorize(env.ctx, pair.Access)
			Expect(err).NotTo(HaveOccurred())
			Expect(accountID).To(Equal(account.ID))

			me, err := env.svc.WhoAmI(env.ctx, pair.Access)
			Expect(err).NotTo(HaveOccurred())
			Expect(me.Email).To(Equal(params.Email))
			Expect(me.LoggedInAt).NotTo(BeNil())
		})

		It("returns the same error for unknown email and wrong password", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())

			_, unknownErr := env.svc.Login(env.ctx, "nobody@example.com", testPassword)
			Expect(unknownErr).To(MatchError(auth.ErrInvalidCredentials))

			_, wrongErr := env.svc.Login(env.ctx, params.Email, "Wr0ng-Password!")
			Expect(wrongErr).To(MatchError(auth.ErrInvalidCredentials))
		})

		It("rejects a syntactically valid token with no stored pair", func() {
			signer, err := auth.NewHS256Signer([]byte(testSigningSecret))
			Expect(err).NotTo(HaveOccurred())
			orphan, err := signer.Sign(ulid.Make(), time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Authorize(env.ctx, orphan)
			Expect(err).To(MatchError(auth.ErrUnauthorized))
		})
	})

	Describe("Refresh rotation", func() {
		It("rotates the pair and invalidates the old tokens", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			old, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			rotated, err := env.svc.Refresh(env.ctx, old.Refresh)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.ID).NotTo(Equal(old.ID))
			Expect(rotated.Access).NotTo(Equal(old.Access))
			Expect(rotated.Refresh).NotTo(Equal(old.Refresh))

			// Replaying the rotated-away refresh token must fail.
			_, err = env.svc.Refresh(env.ctx, old.Refresh)
			Expect(err).To(MatchError(auth.ErrNotFound))

			// The old access token is gone with its row.
			_, err = env.svc.Authorize(env.ctx, old.Access)
			Expect(err).To(MatchError(auth.ErrUnauthorized))

			// The rotated pair works.
			_, err = env.svc.Authorize(env.ctx, rotated.Access)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps other sessions of the same account intact", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())

			first, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())
			second, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Refresh(env.ctx, first.Refresh)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.Authorize(env.ctx, second.Access)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Profile update", func() {
		It("applies the new fields and keeps the email", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			fixed := "011-123-4567"
			updated, err := env.svc.UpdateProfile(env.ctx, pair.Access, auth.UpdateProfileParams{
				Name:           "moved-north",
				FixedNumber:    &fixed,
				PostalCode:     "060-0001",
				PrefectureCode: 1,
				AddressDetails: "札幌市中央区北1条西2丁目",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("moved-north"))
			Expect(updated.Email).To(Equal(params.Email))

			stored, err := env.accounts.GetByID(env.ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PrefectureCode).To(Equal(int16(1)))
			Expect(stored.PostalCode).To(Equal("060-0001"))
			Expect(*stored.FixedNumber).To(Equal(fixed))
			Expect(stored.MobileNumber).To(BeNil())
		})

		It("rejects invalid fields without touching the row", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.svc.UpdateProfile(env.ctx, pair.Access, auth.UpdateProfileParams{
				Name:           "still-valid",
				PostalCode:     "060-0001",
				PrefectureCode: 99,
				AddressDetails: "nowhere",
			})
			Expect(err).To(MatchError(auth.ErrValidation))

			stored, err := env.accounts.GetByID(env.ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Name).To(Equal(params.Name))
			Expect(stored.PrefectureCode).To(Equal(int16(13)))
		})
	})

	Describe("Password change", func() {
		It("swaps the credential for future logins", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			newPassword := "Turn3d-Over!"
			Expect(env.svc.ChangePassword(env.ctx, pair.Access, testPassword, newPassword)).To(Succeed())

			// The old password no longer opens the account.
			_, err = env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))

			_, err = env.svc.Login(env.ctx, params.Email, newPassword)
			Expect(err).NotTo(HaveOccurred())

			// Pairs issued before the change keep working.
			_, err = env.svc.Authorize(env.ctx, pair.Access)
			Expect(err).NotTo(HaveOccurred())
		})

		It("demands the current password", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			err = env.svc.ChangePassword(env.ctx, pair.Access, "Wr0ng-Password!", "Turn3d-Over!")
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))

			_, err = env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Logout", func() {
		It("revokes the pair and is idempotent", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			Expect(env.svc.Logout(env.ctx, pair.Access)).To(Succeed())

			_, err = env.svc.Authorize(env.ctx, pair.Access)
			Expect(err).To(MatchError(auth.ErrUnauthorized))
			_, err = env.svc.Refresh(env.ctx, pair.Refresh)
			Expect(err).To(MatchError(auth.ErrNotFound))

			// A second logout with either token is a no-op.
			Expect(env.svc.Logout(env.ctx, pair.Access)).To(Succeed())
			Expect(env.svc.Logout(env.ctx, pair.Refresh)).To(Succeed())
		})
	})

	Describe("Expired token sweep", func() {
		It("removes expired pairs and keeps live ones", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			live, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			now := time.Now()
			expired, err := auth.NewTokenPair(account.ID,
				"expired-access-"+ulid.Make().String(), now.Add(-2*time.Hour),
				"expired-refresh-"+ulid.Make().String(), now.Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(env.tokens.Create(env.ctx, expired)).To(Succeed())

			Expect(env.sweeper.RunOnce(env.ctx)).To(Succeed())

			_, err = env.tokens.GetByRefresh(env.ctx, expired.Refresh)
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = env.tokens.GetByRefresh(env.ctx, live.Refresh)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Account deletion", func() {
		It("refuses to delete an account with live tokens unless cascading", func() {
			params := registerParams()
			account, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())
			pair, err := env.svc.Login(env.ctx, params.Email, testPassword)
			Expect(err).NotTo(HaveOccurred())

			err = env.accounts.Delete(env.ctx, account.ID, false)
			Expect(err).To(MatchError(auth.ErrConflict))

			Expect(env.accounts.Delete(env.ctx, account.ID, true)).To(Succeed())

			_, err = env.accounts.GetByID(env.ctx, account.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = env.tokens.GetByRefresh(env.ctx, pair.Refresh)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})

	Describe("Prefecture reference data", func() {
		It("seeds all 47 prefectures in code order", func() {
			prefs, err := env.svc.Prefectures(env.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(prefs).To(HaveLen(47))
			Expect(prefs[0].Code).To(Equal(int16(1)))
			Expect(prefs[0].Name).To(Equal("北海道"))
			Expect(prefs[46].Code).To(Equal(int16(47)))
			Expect(prefs[46].Name).To(Equal("沖縄県"))
		})

		It("refuses to delete a prefecture referenced by an account", func() {
			params := registerParams()
			_, err := env.svc.Register(env.ctx, params)
			Expect(err).NotTo(HaveOccurred())

			err = env.prefectures.Delete(env.ctx, params.PrefectureCode)
			Expect(err).To(MatchError(auth.ErrConflict))

			pref, err := env.svc.PrefectureByCode(env.ctx, params.PrefectureCode)
			Expect(err).NotTo(HaveOccurred())
			Expect(pref.Name).To(Equal("東京都"))
		})

		It("deletes an unreferenced prefecture", func() {
			Expect(env.prefectures.Delete(env.ctx, 47)).To(Succeed())

			_, err := env.svc.PrefectureByCode(env.ctx, 47)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
