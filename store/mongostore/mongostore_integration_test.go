//go:build integration

package mongostore_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/store/mongostore"
)

func setupMongoContainer() (*mongostore.Store, func(), error) {
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, nil, err
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	s, err := mongostore.Connect(ctx, uri, "huiauth_test")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		_ = s.Close(ctx)
		_ = container.Terminate(ctx)
	}
	return s, cleanup, nil
}

var _ = Describe("MongoStore", Ordered, func() {
	var (
		s       *mongostore.Store
		cleanup func()
		ctx     context.Context
		user    *store.User
	)

	BeforeAll(func() {
		var err error
		s, cleanup, err = setupMongoContainer()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		Expect(s.UpsertRole(ctx, store.Role{
			Name:        "hui_vien",
			Description: "Hụi viên",
			Permissions: []string{"group:view", "group_member:view", "friendship:view"},
		})).To(Succeed())

		user, err = s.CreateUser(ctx, store.NewUser{
			Email:        "user@example.com",
			FullName:     "Nguyễn Văn A",
			PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
			Role:         "hui_vien",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		cleanup()
	})

	Describe("users", func() {
		It("joins the role permissions on read", func() {
			got, err := s.FindByEmail(ctx, "user@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))
			Expect(got.Permissions).To(ConsistOf("group:view", "group_member:view", "friendship:view"))
		})

		It("matches emails exactly", func() {
			_, err := s.FindByEmail(ctx, "User@Example.com")
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("reflects role changes without rewriting users", func() {
			Expect(s.UpsertRole(ctx, store.Role{Name: "hui_vien", Permissions: []string{"group:view"}})).To(Succeed())
			got, err := s.FindByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Permissions).To(Equal([]string{"group:view"}))
		})

		It("rejects a second account with the same email", func() {
			_, err := s.CreateUser(ctx, store.NewUser{Email: "user@example.com", PasswordHash: "h", Role: "hui_vien"})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		It("reports unknown ids as not found", func() {
			_, err := s.FindByID(ctx, "not-an-object-id")
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("sessions", func() {
		It("never overwrites on id collision", func() {
			sess := store.Session{ID: "sid-dup", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
			Expect(s.SetSession(ctx, sess)).To(Succeed())
			sess.UserID = "other"
			Expect(s.SetSession(ctx, sess)).To(MatchError(store.ErrDuplicateKey))
		})

		It("treats updates and deletes of absent sessions as no-ops", func() {
			Expect(s.UpdateSessionExpiration(ctx, "missing", time.Now())).To(Succeed())
			Expect(s.DeleteSession(ctx, "missing")).To(Succeed())
			Expect(s.DeleteSession(ctx, "missing")).To(Succeed())
		})

		It("sweeps expired sessions only", func() {
			Expect(s.SetSession(ctx, store.Session{ID: "sid-old", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Minute)})).To(Succeed())
			Expect(s.SetSession(ctx, store.Session{ID: "sid-new", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)})).To(Succeed())

			n, err := s.DeleteExpiredSessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">=", 1))

			_, err = s.GetSession(ctx, "sid-old")
			Expect(err).To(MatchError(store.ErrNotFound))
			_, err = s.GetSession(ctx, "sid-new")
			Expect(err).NotTo(HaveOccurred())
		})

		It("resolves session and user through the adapter", func() {
			adapter := store.NewAdapter(s, s)
			sess, u, err := adapter.GetSessionAndUser(ctx, "sid-new")
			Expect(err).NotTo(HaveOccurred())
			Expect(sess).NotTo(BeNil())
			Expect(u.ID).To(Equal(user.ID))

			Expect(s.DeleteUserSessions(ctx, user.ID)).To(Succeed())
			sessions, err := s.GetUserSessions(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})
	})

	Describe("settings", func() {
		It("creates, reads and updates rows", func() {
			_, err := s.CreateSetting(ctx, store.Setting{ID: "password_min_length", Category: "password", Key: "minLength", Value: int32(8)})
			Expect(err).NotTo(HaveOccurred())

			row, err := s.UpdateSettingValue(ctx, "password_min_length", int32(10))
			Expect(err).NotTo(HaveOccurred())
			Expect(row.Value).To(BeEquivalentTo(10))

			rows, err := s.FindSettingsByCategory(ctx, "password")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})
})
