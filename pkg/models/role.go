package models

// Role is one of the four system roles. The set is fixed; roles are not
// user-definable and there is no inheritance between them.
type Role string

const (
	RoleUser       Role = "User"
	RoleLibrarian  Role = "Librarian"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super Admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleLibrarian, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the four system roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLibrarian, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Permission is a capability token of the shape "resource:action". The
// catalog is closed-world: only the tokens enumerated below are meaningful,
// and matching is exact with no wildcard or prefix semantics.
type Permission string

const (
	PermBooksRead   Permission = "books:read"
	PermBooksCreate Permission = "books:create"
	PermBooksUpdate Permission = "books:update"
	PermBooksDelete Permission = "books:delete"

	PermBorrowersRead   Permission = "borrowers:read"
	PermBorrowersCreate Permission = "borrowers:create"
	PermBorrowersUpdate Permission = "borrowers:update"
	PermBorrowersDelete Permission = "borrowers:delete"

	PermLendingsRead   Permission = "lendings:read"
	PermLendingsCreate Permission = "lendings:create"
	PermLendingsUpdate Permission = "lendings:update"

	PermUsersRead   Permission = "users:read"
	PermUsersCreate Permission = "users:create"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"

	PermCasesRead   Permission = "cases:read"
	PermCasesCreate Permission = "cases:create"
	PermCasesUpdate Permission = "cases:update"
	PermCasesDelete Permission = "cases:delete"

	PermDocumentsRead   Permission = "documents:read"
	PermDocumentsCreate Permission = "documents:create"
	PermDocumentsUpdate Permission = "documents:update"
	PermDocumentsDelete Permission = "documents:delete"

	PermDashboardRead Permission = "dashboard:read"
)

// Catalog is the full enumerable permission set. Adding a resource means
// adding its tokens here and to one or more role sets below.
var Catalog = []Permission{
	PermBooksRead, PermBooksCreate, PermBooksUpdate, PermBooksDelete,
	PermBorrowersRead, PermBorrowersCreate, PermBorrowersUpdate, PermBorrowersDelete,
	PermLendingsRead, PermLendingsCreate, PermLendingsUpdate,
	PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
	PermCasesRead, PermCasesCreate, PermCasesUpdate, PermCasesDelete,
	PermDocumentsRead, PermDocumentsCreate, PermDocumentsUpdate, PermDocumentsDelete,
	PermDashboardRead,
}

// InCatalog reports whether p is a defined permission token.
func InCatalog(p Permission) bool {
	for _, c := range Catalog {
		if c == p {
			return true
		}
	}
	return false
}

// rolePermissions is the static role→permission mapping. Each set is an
// explicit enumeration; none is derived from another.
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		PermBooksRead,
		PermBorrowersRead,
		PermLendingsRead,
		PermCasesRead,
		PermDocumentsRead,
		PermDashboardRead,
	},
	RoleLibrarian: {
		PermBooksRead, PermBooksCreate, PermBooksUpdate, PermBooksDelete,
		PermBorrowersRead, PermBorrowersCreate, PermBorrowersUpdate, PermBorrowersDelete,
		PermLendingsRead, PermLendingsCreate, PermLendingsUpdate,
		PermCasesRead,
		PermDocumentsRead,
		PermDashboardRead,
	},
	RoleAdmin: {
		PermBooksRead, PermBooksCreate, PermBooksUpdate, PermBooksDelete,
		PermBorrowersRead, PermBorrowersCreate, PermBorrowersUpdate, PermBorrowersDelete,
		PermLendingsRead, PermLendingsCreate, PermLendingsUpdate,
		PermUsersRead, PermUsersCreate, PermUsersUpdate,
		PermCasesRead, PermCasesCreate, PermCasesUpdate, PermCasesDelete,
		PermDocumentsRead, PermDocumentsCreate, PermDocumentsUpdate, PermDocumentsDelete,
		PermDashboardRead,
	},
	RoleSuperAdmin: {
		PermBooksRead, PermBooksCreate, PermBooksUpdate, PermBooksDelete,
		PermBorrowersRead, PermBorrowersCreate, PermBorrowersUpdate, PermBorrowersDelete,
		PermLendingsRead, PermLendingsCreate, PermLendingsUpdate,
		PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
		PermCasesRead, PermCasesCreate, PermCasesUpdate, PermCasesDelete,
		PermDocumentsRead, PermDocumentsCreate, PermDocumentsUpdate, PermDocumentsDelete,
		PermDashboardRead,
	},
}

// DefaultPermissionsForRole returns a copy of the role's default permission
// set. Unknown roles get an empty set.
func DefaultPermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasAll reports whether every required permission is present in granted.
// Matching is pure set-inclusion: "books:read" is only satisfied by
// "books:read".
func HasAll(granted, required []Permission) bool {
	for _, req := range required {
		found := false
		for _, g := range granted {
			if g == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
