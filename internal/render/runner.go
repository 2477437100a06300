package render

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Runner 执行外部排版工具链命令。
// 非零退出码以 error 形式返回，调用方按单项失败处理。
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// ExecRunner 基于 os/exec 的 Runner 实现。
// 输出汇入实例自己的 sink，生命周期跟随工作池而不是整个进程。
type ExecRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewExecRunner 创建默认丢弃子进程输出的执行器
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		stdout: io.Discard,
		stderr: io.Discard,
	}
}

// NewExecRunnerWithOutput 创建把子进程输出写入指定 sink 的执行器
func NewExecRunnerWithOutput(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{
		stdout: stdout,
		stderr: stderr,
	}
}

// Run 在 dir 下执行命令，阻塞到进程退出或 ctx 超时
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s timed out: %w", name, ctxErr)
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
