package device

import "fmt"

// Driver is the vtable every major number registers (spec.md §4.7):
// minor disambiguates instances of the same driver (e.g. TTY 0 vs 1).
type Driver interface {
	Open(minor int) error
	Read(minor int, buf []byte) (int, error)
	Write(minor int, buf []byte) (int, error)
	Control(minor int, cmd int, args ...uint32) (int, error)
	Close(minor int) error
}

const maxMajor = 32

var drivers [maxMajor]Driver

// Register installs driver at major, overwriting any previous one.
func Register(major int, driver Driver) {
	drivers[major] = driver
}

func lookup(major int) (Driver, error) {
	if major < 0 || major >= maxMajor || drivers[major] == nil {
		return nil, fmt.Errorf("device: no driver registered for major %d", major)
	}
	return drivers[major], nil
}

// Open/Read/Write/Control/Close dispatch by major number to the
// registered driver; the file layer above calls these rather than a
// driver directly (spec.md §4.7: "the file layer calls into these via
// the major number").
func Open(major, minor int) error {
	d, err := lookup(major)
	if err != nil {
		return err
	}
	return d.Open(minor)
}

func Read(major, minor int, buf []byte) (int, error) {
	d, err := lookup(major)
	if err != nil {
		return 0, err
	}
	return d.Read(minor, buf)
}

func Write(major, minor int, buf []byte) (int, error) {
	d, err := lookup(major)
	if err != nil {
		return 0, err
	}
	return d.Write(minor, buf)
}

func Control(major, minor, cmd int, args ...uint32) (int, error) {
	d, err := lookup(major)
	if err != nil {
		return 0, err
	}
	return d.Control(minor, cmd, args...)
}

func Close(major, minor int) error {
	d, err := lookup(major)
	if err != nil {
		return err
	}
	return d.Close(minor)
}
