package kernel

import "strconv"

// Version of the running kernel, as reported by uname(2).
type Version struct {
	Kernel int
	Major  int
	Minor  int
	Flavor string
}

func (v Version) String() string {
	return strconv.Itoa(v.Kernel) + "." + strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + v.Flavor
}

func Compare(a, b Version) int {
	if a.Kernel != b.Kernel {
		return sign(a.Kernel - b.Kernel)
	}
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	return sign(a.Minor - b.Minor)
}

func sign(n int) int {
	if n > 0 {
		return 1
	} else if n < 0 {
		return -1
	}
	return 0
}

// Check
// reports whether the running kernel is at least k.major.minor.
func Check(k, major, minor int) (bool, error) {
	v, err := Get()
	if err != nil {
		return false, err
	}
	return Compare(*v, Version{Kernel: k, Major: major, Minor: minor}) >= 0, nil
}
