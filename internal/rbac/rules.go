package rbac

// Permissions for the exam engine. Learners act on their own attempts and
// certificates; teachers read across learners; admin is unrestricted.
const (
	PermExamView           = "exam:view"
	PermAttemptCreate      = "attempt:create"
	PermAttemptSave        = "attempt:save"
	PermAttemptSubmit      = "attempt:submit"
	PermAttemptViewOwn     = "attempt:view-own"
	PermAttemptViewAll     = "attempt:view-all"
	PermCertificateClaim   = "certificate:claim"
	PermCertificateViewOwn = "certificate:view-own"
)

var RolePermissions = map[string][]string{
	"student": {
		PermExamView,
		PermAttemptCreate,
		PermAttemptSave,
		PermAttemptSubmit,
		PermAttemptViewOwn,
		PermCertificateClaim,
		PermCertificateViewOwn,
	},
	"teacher": {
		PermExamView,
		PermAttemptViewAll,
	},
	"admin": {"*"},
}
