package config

const (
	bootstrapAdminEmailEnvVar       = "BOOTSTRAP_ADMIN_EMAIL"
	bootstrapAdminPasswordEnvVar    = "BOOTSTRAP_ADMIN_PASSWORD"
	bootstrapEmployeeEmailEnvVar    = "BOOTSTRAP_EMPLOYEE_EMAIL"
	bootstrapEmployeePasswordEnvVar = "BOOTSTRAP_EMPLOYEE_PASSWORD"
	bootstrapEmployeePinEnvVar      = "BOOTSTRAP_EMPLOYEE_PIN"
)

// BootstrapConfig names the accounts serve creates when they are missing.
// An empty email disables that account; an empty password is generated and
// printed once.
type BootstrapConfig interface {
	GetBootstrapAdminEmail() string
	GetBootstrapAdminPassword() string
	GetBootstrapEmployeeEmail() string
	GetBootstrapEmployeePassword() string
	GetBootstrapEmployeePin() string
}

type Bootstrap struct{}

var _ BootstrapConfig = Bootstrap{}

func (Bootstrap) GetBootstrapAdminEmail() string {
	return GetEnv(bootstrapAdminEmailEnvVar, "")
}

func (Bootstrap) GetBootstrapAdminPassword() string {
	return GetEnv(bootstrapAdminPasswordEnvVar, "")
}

func (Bootstrap) GetBootstrapEmployeeEmail() string {
	return GetEnv(bootstrapEmployeeEmailEnvVar, "")
}

func (Bootstrap) GetBootstrapEmployeePassword() string {
	return GetEnv(bootstrapEmployeePasswordEnvVar, "")
}

func (Bootstrap) GetBootstrapEmployeePin() string {
	return GetEnv(bootstrapEmployeePinEnvVar, "")
}
