package camera

import (
	"context"
)

// Diagnosis is what `camera doctor` reports.
type Diagnosis struct {
	Cameras   []Detected
	Ports     []Port
	DetectErr error
	PortsErr  error
}

// Troubleshooting is printed when no camera can be reached.
const Troubleshooting = `1. Check the camera is visible:
     gphoto2 --list-ports
     gphoto2 --auto-detect

2. Give your user USB access (log out and in afterwards):
     sudo usermod -a -G plugdev $USER

3. Add a udev rule for Canon bodies in /etc/udev/rules.d/90-libgphoto2.rules:
     SUBSYSTEM=="usb", ATTR{idVendor}=="04a9", MODE="0664", GROUP="plugdev"

4. Reload udev:
     sudo udevadm control --reload-rules
     sudo udevadm trigger

5. Put the camera in PTP mode (Setup > Communication > PTP).

6. Close desktop tools that claim the camera (gvfs-gphoto2-volume-monitor).

7. Try a manual connection:
     gphoto2 --summary
`

// Diagnose runs auto-detect and list-ports without connecting.
func (c *Controller) Diagnose(ctx context.Context) Diagnosis {
	var d Diagnosis
	d.Cameras, d.DetectErr = c.Detect(ctx)
	d.Ports, d.PortsErr = c.Ports(ctx)
	return d
}

// OK reports whether at least one camera was detected.
func (d Diagnosis) OK() bool {
	return d.DetectErr == nil && len(d.Cameras) > 0
}
