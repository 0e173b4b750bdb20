// Package star implements the default execution backend: a Starlark
// interpreter. Starlark has no file, network or process access, so the only
// effects a payload can have are the output it prints and the host builtins it
// is explicitly given. Every execution runs on a fresh thread with a step budget.
package star
