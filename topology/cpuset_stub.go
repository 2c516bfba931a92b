// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package topology

// CurrentCPUSet always fails on non-Linux platforms in this build.
func CurrentCPUSet() (Bitmap, error) {
	return Bitmap{}, ErrUnsupportedPlatform
}

// BindThread always fails on non-Linux platforms in this build.
func BindThread(cpu int) error {
	return ErrUnsupportedPlatform
}
