// Package capture reads webcam frames through OpenCV.
package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"detectview/internal/logger"
)

// Camera is a FrameSource backed by a gocv VideoCapture.
type Camera struct {
	device  string
	capture *gocv.VideoCapture
	frame   gocv.Mat
	width   int
	height  int
	mu      sync.Mutex
	logger  *logger.Logger
}

// OpenCamera opens a device index ("0") or a stream URL / file path.
// Failure to open is an acquisition error surfaced to the caller.
func OpenCamera(device string, logger *logger.Logger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %s is not available", device)
	}

	cam := &Camera{
		device:  device,
		capture: capture,
		frame:   gocv.NewMat(),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		logger:  logger,
	}
	logger.Info("Camera %s opened (%dx%d)", device, cam.width, cam.height)
	return cam, nil
}

// Frame grabs the next frame and encodes it as JPEG.
func (c *Camera) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.capture.Read(&c.frame); !ok {
		return nil, fmt.Errorf("camera %s: read failed", c.device)
	}
	if c.frame.Empty() {
		return nil, fmt.Errorf("camera %s: empty frame", c.device)
	}
	c.width, c.height = c.frame.Cols(), c.frame.Rows()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// Size returns the size of the last captured frame.
func (c *Camera) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frame.Close()
	if err := c.capture.Close(); err != nil {
		return err
	}
	c.logger.Info("Camera %s closed", c.device)
	return nil
}
