//go:build linux

package terminal

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"unsafe"
)

func startPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	master, slave, err := openPTY()
	if err != nil {
		return nil, err
	}

	if err := setWinSize(master, cols, rows); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	slave.Close()

	return &unixPTY{master: master}, nil
}

type unixPTY struct {
	master *os.File
}

func (p *unixPTY) File() *os.File { return p.master }

func (p *unixPTY) Read(buf []byte) (int, error) {
	return p.master.Read(buf)
}

func (p *unixPTY) Write(data []byte) (int, error) {
	return p.master.Write(data)
}

func (p *unixPTY) Resize(cols, rows uint16) error {
	return setWinSize(p.master, cols, rows)
}

func (p *unixPTY) Close() error {
	return p.master.Close()
}

func openPTY() (master, slave *os.File, err error) {
	master, err = os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}

	if err := unlockPT(master); err != nil {
		master.Close()
		return nil, nil, err
	}
	path, err := ptsName(master)
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	slave, err = os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		master.Close()
		return nil, nil, err
	}
	return master, slave, nil
}

func unlockPT(master *os.File) error {
	var unlock int32
	return ioctl(master, syscall.TIOCSPTLCK, uintptr(unsafe.Pointer(&unlock)))
}

func ptsName(master *os.File) (string, error) {
	var ptyno uint32
	if err := ioctl(master, syscall.TIOCGPTN, uintptr(unsafe.Pointer(&ptyno))); err != nil {
		return "", err
	}
	return "/dev/pts/" + strconv.Itoa(int(ptyno)), nil
}

func setWinSize(f *os.File, cols, rows uint16) error {
	ws := struct {
		row, col, xpixel, ypixel uint16
	}{row: rows, col: cols}
	return ioctl(f, syscall.TIOCSWINSZ, uintptr(unsafe.Pointer(&ws)))
}

func ioctl(f *os.File, req, arg uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
