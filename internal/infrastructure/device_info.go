package infrastructure

import (
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/reduce-go/internal/domain"
)

const machineIDPath = "/etc/machine-id"

// CollectDeviceInfo describes the current machine. Fields that cannot be
// determined are reported as domain.UnknownValue.
func CollectDeviceInfo() domain.DeviceInfo {
	mac := hardwareAddress()
	info := domain.DeviceInfo{
		DeviceID:    deviceID(mac),
		CurrentUser: currentUser(),
		MACAddress:  mac,
	}
	if hostname, err := os.Hostname(); err == nil {
		info.DeviceName = hostname
	}
	return info.WithDefaults()
}

func deviceID(mac string) string {
	if runtime.GOOS == "linux" {
		if data, err := os.ReadFile(machineIDPath); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	// Time-based UUIDs embed the node id, so they identify the host.
	if id, err := uuid.NewUUID(); err == nil {
		return id.String()
	}
	return mac
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// hardwareAddress returns the first non-loopback interface MAC
func hardwareAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String()
	}
	return ""
}
