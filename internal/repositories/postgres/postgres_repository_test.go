package postgres

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/testutil"
)

func newTestRepo(t *testing.T) repositories.Repository {
	t.Helper()
	return NewPostgreSQLRepository(RepositoryConfig{DB: testutil.NewTestDB(t)})
}

func seedClass(t *testing.T, repo repositories.Repository, seats int) *models.Class {
	t.Helper()
	class := &models.Class{
		InstructorEmail: "teacher@camp.io",
		InstructorName:  "Teacher",
		ClassName:       "Watercolor Basics",
		AvailableSeats:  seats,
		Price:           120,
	}
	if err := repo.Class().Create(context.Background(), class); err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return class
}

// hasListing reports whether a "list:all" entry of any generation is cached
func hasListing(mr *miniredis.Miniredis, prefix string) bool {
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, prefix+"v") && strings.HasSuffix(key, ":list:all") {
			return true
		}
	}
	return false
}

// waitForListing waits for the asynchronous cache write-back
func waitForListing(mr *miniredis.Miniredis, prefix string) bool {
	deadline := time.Now().Add(2 * time.Second)
	for !hasListing(mr, prefix) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return hasListing(mr, prefix)
}

func TestUserRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.User().GetByEmail(ctx, "nobody@camp.io")
	if !repositories.IsNotFoundError(err) {
		t.Fatalf("err = %v, want not found", err)
	}

	user := &models.User{Name: "Ana", Email: "ana@camp.io", Profile: map[string]interface{}{"gender": "female"}}
	if err := repo.User().Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated id")
	}

	n, err := repo.User().UpdateRole(ctx, user.ID, models.RoleInstructor)
	if err != nil || n != 1 {
		t.Fatalf("UpdateRole = %d, %v", n, err)
	}

	got, err := repo.User().GetByEmail(ctx, "ana@camp.io")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Role != models.RoleInstructor {
		t.Errorf("Role = %q", got.Role)
	}
	if got.Profile["gender"] != "female" {
		t.Errorf("Profile = %v", got.Profile)
	}

	n, err = repo.User().UpdateRole(ctx, "missing", models.RoleAdmin)
	if err != nil || n != 0 {
		t.Errorf("UpdateRole(missing) = %d, %v", n, err)
	}
}

func TestClassRepository_ReserveSeat(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	class := seedClass(t, repo, 1)

	ok, err := repo.Class().ReserveSeat(ctx, class.ID)
	if err != nil || !ok {
		t.Fatalf("first ReserveSeat = %v, %v", ok, err)
	}

	ok, err = repo.Class().ReserveSeat(ctx, class.ID)
	if err != nil {
		t.Fatalf("second ReserveSeat error: %v", err)
	}
	if ok {
		t.Error("second ReserveSeat should fail on a full class")
	}

	got, err := repo.Class().GetByID(ctx, class.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AvailableSeats != 0 || got.EnrolledStudents != 1 {
		t.Errorf("seats = %d, enrolled = %d", got.AvailableSeats, got.EnrolledStudents)
	}
}

func TestClassRepository_UpdateDetailsScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	class := seedClass(t, repo, 5)

	update := repositories.ClassUpdate{ClassName: "Oil Painting", AvailableSeats: 10, Price: 200}

	n, err := repo.Class().UpdateDetails(ctx, class.ID, "other@camp.io", update)
	if err != nil || n != 0 {
		t.Fatalf("non-owner update = %d, %v", n, err)
	}

	n, err = repo.Class().UpdateDetails(ctx, class.ID, class.InstructorEmail, update)
	if err != nil || n != 1 {
		t.Fatalf("owner update = %d, %v", n, err)
	}

	got, _ := repo.Class().GetByID(ctx, class.ID)
	if got.ClassName != "Oil Painting" || got.AvailableSeats != 10 || got.Price != 200 {
		t.Errorf("got %+v", got)
	}
}

func TestClassRepository_ListUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewPostgreSQLRepository(RepositoryConfig{DB: testutil.NewTestDB(t), RedisClient: client})
	ctx := context.Background()
	class := seedClass(t, repo, 3)

	classes, err := repo.Class().List(ctx, repositories.ClassFilters{})
	if err != nil || len(classes) != 1 {
		t.Fatalf("List = %d, %v", len(classes), err)
	}

	if !waitForListing(mr, "class:") {
		t.Fatal("expected cached listing")
	}

	if _, err := repo.Class().UpdateStatus(ctx, class.ID, models.ClassApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if hasListing(mr, "class:") {
		t.Error("listing should be invalidated after a write")
	}

	approved := models.ClassApproved
	classes, err = repo.Class().List(ctx, repositories.ClassFilters{Status: &approved})
	if err != nil || len(classes) != 1 || classes[0].Status != models.ClassApproved {
		t.Errorf("filtered List = %+v, %v", classes, err)
	}
}

func TestOrderRepository_ConditionalTransitions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	order := &models.Order{TranID: "tran-1", CourseID: "c1", StudentEmail: "s@camp.io", Price: 50}
	if err := repo.Order().Create(ctx, order); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != models.OrderPending {
		t.Errorf("Status = %q, want pending", order.Status)
	}

	ok, err := repo.Order().MarkPaid(ctx, "tran-1", time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkPaid = %v, %v", ok, err)
	}
	ok, err = repo.Order().MarkPaid(ctx, "tran-1", time.Now())
	if err != nil || ok {
		t.Errorf("replayed MarkPaid = %v, %v; want false", ok, err)
	}

	ok, err = repo.Order().DeletePending(ctx, "tran-1")
	if err != nil || ok {
		t.Errorf("DeletePending on paid order = %v, %v; want false", ok, err)
	}

	got, err := repo.Order().GetByTranID(ctx, "tran-1")
	if err != nil {
		t.Fatalf("GetByTranID: %v", err)
	}
	if !got.PaidStatus || got.Status != models.OrderPaid || got.PaidAt == nil {
		t.Errorf("got %+v", got)
	}
}

func TestRepository_WithTransactionRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	class := seedClass(t, repo, 2)

	sentinel := errors.New("abort")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Class().ReserveSeat(ctx, class.ID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v", err)
	}

	got, _ := repo.Class().GetByID(ctx, class.ID)
	if got.AvailableSeats != 2 || got.EnrolledStudents != 0 {
		t.Errorf("rollback failed: seats = %d, enrolled = %d", got.AvailableSeats, got.EnrolledStudents)
	}
}

func TestClassRepository_ConcurrentReserveNeverOversells(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	class := seedClass(t, repo, 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Class().ReserveSeat(ctx, class.ID)
			if err != nil {
				t.Errorf("ReserveSeat: %v", err)
				return
			}
			if ok {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if reserved != 3 {
		t.Errorf("reserved = %d, want 3", reserved)
	}
	got, _ := repo.Class().GetByID(ctx, class.ID)
	if got.AvailableSeats != 0 || got.EnrolledStudents != 3 {
		t.Errorf("seats = %d, enrolled = %d", got.AvailableSeats, got.EnrolledStudents)
	}
}

func TestCartRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	item := &models.CartItem{CourseID: "c1", Email: "s@camp.io", ClassName: "Yoga", Price: 10}
	if err := repo.Cart().Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := repo.Cart().ListByEmail(ctx, "other@camp.io")
	if err != nil || len(items) != 0 {
		t.Fatalf("other's cart = %v, %v", items, err)
	}

	n, err := repo.Cart().DeleteByIDAndEmail(ctx, item.ID, "other@camp.io")
	if err != nil || n != 0 {
		t.Errorf("delete by wrong email = %d, %v", n, err)
	}

	n, err = repo.Cart().DeleteByCourseAndEmail(ctx, "c1", "s@camp.io")
	if err != nil || n != 1 {
		t.Errorf("DeleteByCourseAndEmail = %d, %v", n, err)
	}
}

func TestInstructorRepository_CreateInvalidatesListing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewPostgreSQLRepository(RepositoryConfig{DB: testutil.NewTestDB(t), RedisClient: client})
	ctx := context.Background()

	if err := repo.Instructor().Create(ctx, &models.Instructor{Name: "Rita", Email: "rita@camp.io", ClassesTaken: 2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.Instructor().List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %d, %v", len(list), err)
	}

	if !waitForListing(mr, "instructor:") {
		t.Fatal("expected cached instructor listing")
	}

	if err := repo.Instructor().Create(ctx, &models.Instructor{Name: "Omar", Email: "omar@camp.io"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if hasListing(mr, "instructor:") {
		t.Error("listing should be dropped after insert")
	}

	list, err = repo.Instructor().List(ctx)
	if err != nil || len(list) != 2 {
		t.Errorf("List after insert = %d, %v", len(list), err)
	}
}
