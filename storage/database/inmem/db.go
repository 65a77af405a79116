package inmemdb

import (
	"sync"

	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/user"
)

type (
	// DB is an in-memory stand-in for the Postgres database, safe for concurrent use.
	DB struct {
		user   *userTable
		course *courseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{table: make(map[string]*course.Course)},
	}
}

// lessFunc compares two records on one ordering field.
type lessFunc func(i, j int) (less, equal bool)

// multiLess chains lessFuncs; the first one that tells the records apart decides.
func multiLess(funcs []lessFunc) func(i, j int) bool {
	return func(i, j int) bool {
		for _, f := range funcs {
			if less, equal := f(i, j); !equal {
				return less
			}
		}
		return false
	}
}
