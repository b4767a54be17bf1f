// Package platform holds the OS-level glue: the single-instance lock and
// the login-entry registration.
package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"

	"github.com/hashicorp/go-hclog"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock for the lifetime of the
// process. The lock is a bound localhost port derived from the app name, so
// it disappears with the process even after a crash.
type InstanceGuard struct {
	listener net.Listener
	address  string
	log      hclog.Logger
}

// AcquireSingleInstance binds the app's deterministic localhost port.
func AcquireSingleInstance(appName string, log hclog.Logger) (*InstanceGuard, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	address := fmt.Sprintf("127.0.0.1:%d", instancePort(appName))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Warn("single-instance port already bound", "address", address)
		return nil, ErrAlreadyRunning
	}
	log.Debug("single-instance lock acquired", "address", address)
	return &InstanceGuard{listener: listener, address: address, log: log}, nil
}

// Release frees the lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	guard.log.Debug("single-instance lock released", "address", guard.address)
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func instancePort(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	return minPort + int(hash.Sum32()%uint32(maxPort-minPort+1))
}
