package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidate bumps the helper's generation, logging instead of failing
func SafeInvalidate(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.Invalidate(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache",
			"error", err,
			"pattern", pattern)
	}
}

// InvalidateClassListings drops every cached class list. Called after any
// class write, including the seat change on payment.
func InvalidateClassListings(ctx context.Context, cm *CacheManager) {
	SafeInvalidate(ctx, cm.Class, "list:*")
}

// InvalidateInstructorListings drops the cached instructor list
func InvalidateInstructorListings(ctx context.Context, cm *CacheManager) {
	SafeInvalidate(ctx, cm.Instructor, "list:*")
}
