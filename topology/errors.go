// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

import "errors"

// ErrUnsupportedPlatform is returned by CurrentCPUSet and BindThread on
// platforms without an affinity backend wired up (cpuset_stub.go), and by
// Bind when a binder-computed core position falls outside the freshly
// reloaded CPU set. The topology binder treats this the same as an empty
// CPU set: skip binding, run unbound (spec §4.A "Failure semantics").
var ErrUnsupportedPlatform = errors.New("topology: cpu affinity not supported on this platform")
