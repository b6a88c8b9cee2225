package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

func (a *App) commands() *Command {
	return &Command{
		Name:    ProgramName,
		Summary: "file processing client",
		Subcommands: []*Command{
			{Name: "version", Summary: "print the server build", Run: a.version},
			{Name: "whoami", Summary: "log in and print the current user", Run: a.whoami},
			{
				Name:    "users",
				Summary: "manage users (admin)",
				Subcommands: []*Command{
					{
						Name: "add", Summary: "create a user", Args: "<email> <password>",
						Flags: func(fs *pflag.FlagSet) { fs.Bool("admin", false, "grant admin rights") },
						Run:   a.addUser,
					},
					{Name: "rm", Summary: "delete a user", Args: "<email>", Run: a.deleteUser},
					{
						Name: "ls", Summary: "list user e-mails",
						Flags: func(fs *pflag.FlagSet) { fs.Bool("admins", false, "list administrators instead of common users") },
						Run:   a.listUsers,
					},
				},
			},
			{
				Name:    "files",
				Summary: "manage stored files",
				Subcommands: []*Command{
					{
						Name: "put", Summary: "upload a local file", Args: "<path>",
						Flags: func(fs *pflag.FlagSet) {
							fs.String("name", "", "stored name (default: base name of path)")
							fs.Bool("overwrite", false, "replace an existing file")
						},
						Run: a.putFile,
					},
					{Name: "ls", Summary: "list stored files", Run: a.listFiles},
					{Name: "get", Summary: "download a file", Args: "<uri>", Flags: outputFlag, Run: a.getFile},
					{Name: "rm", Summary: "delete a file", Args: "<uri>", Run: a.deleteFile},
				},
			},
			{
				Name:    "outputs",
				Summary: "fetch or remove tool outputs",
				Subcommands: []*Command{
					{Name: "get", Summary: "download an output", Args: "<uri>", Flags: outputFlag, Run: a.getOutput},
					{Name: "rm", Summary: "delete an output", Args: "<uri>", Run: a.deleteOutput},
				},
			},
			{
				Name: "tools", Summary: "list tools for a content type",
				Flags: func(fs *pflag.FlagSet) { fs.String("type", utils.DefaultContentType, "content type") },
				Run:   a.listTools,
			},
			{
				Name: "process", Summary: "apply a tool now over the dispatch protocol", Args: "<uri> <tool>",
				Flags: func(fs *pflag.FlagSet) { fs.String("type", "", "content type (default: inferred from uri)") },
				Run:   a.process,
			},
			{Name: "submit", Summary: "queue a processing request", Args: "<uri> <tool>", Run: a.submit},
			{
				Name: "next", Summary: "take the next completion (admin)",
				Flags: func(fs *pflag.FlagSet) { fs.Duration("wait", 0, "how long to wait for a completion") },
				Run:   a.nextCompletion,
			},
		},
	}
}

func outputFlag(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "write to this file instead of stdout")
}

func (a *App) version(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	info, err := a.server.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, info)
	return nil
}

func (a *App) whoami(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	if a.creds.Email == "" || a.creds.Password == "" {
		return errNoCredentials
	}
	user, err := a.server.Login(ctx, a.creds.Email, a.creds.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(a.out, "%s\t%s\tadmin=%t\n", user.ID, user.Email, user.IsAdmin)
	return nil
}

func (a *App) addUser(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 2, "<email> <password>"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	isAdmin, _ := fs.GetBool("admin")

	user, err := a.server.AddUser(ctx, models.AddUserRequest{Email: args[0], Password: args[1], IsAdmin: isAdmin})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, user.ID)
	return nil
}

func (a *App) deleteUser(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 1, "<email>"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	return a.server.DeleteUser(ctx, args[0])
}

func (a *App) listUsers(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}

	list := a.server.ListCommonEmails
	if admins, _ := fs.GetBool("admins"); admins {
		list = a.server.ListAdminEmails
	}
	emails, err := list(ctx)
	if err != nil {
		return err
	}
	for _, e := range emails {
		fmt.Fprintln(a.out, e)
	}
	return nil
}

func (a *App) putFile(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 1, "<path>"); err != nil {
		return err
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	name, _ := fs.GetString("name")
	if name == "" {
		name = filepath.Base(args[0])
	}
	overwrite, _ := fs.GetBool("overwrite")

	if err = a.login(ctx); err != nil {
		return err
	}
	uri, err := a.server.UploadFile(ctx, name, content, overwrite)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, uri)
	return nil
}

func (a *App) listFiles(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	files, err := a.server.ListFiles(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URI\tTYPE\tSIZE")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", f.URI, f.ContentType, f.Size)
	}
	return tw.Flush()
}

func (a *App) getFile(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	return a.fetch(ctx, fs, args, a.server.DownloadFile)
}

func (a *App) getOutput(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	return a.fetch(ctx, fs, args, a.server.DownloadOutput)
}

func (a *App) fetch(ctx context.Context, fs *pflag.FlagSet, args []string, download func(context.Context, string) ([]byte, error)) error {
	if err := exactArgs(args, 1, "<uri>"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	content, err := download(ctx, args[0])
	if err != nil {
		return err
	}

	if path, _ := fs.GetString("output"); path != "" {
		return os.WriteFile(path, content, 0o644)
	}
	_, err = a.out.Write(content)
	return err
}

func (a *App) deleteFile(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	return a.remove(ctx, args, a.server.DeleteFile)
}

func (a *App) deleteOutput(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	return a.remove(ctx, args, a.server.DeleteOutput)
}

func (a *App) remove(ctx context.Context, args []string, del func(context.Context, string) error) error {
	if err := exactArgs(args, 1, "<uri>"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	return del(ctx, args[0])
}

func (a *App) listTools(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	contentType, _ := fs.GetString("type")

	descriptors, err := a.server.ListTools(ctx, contentType)
	if err != nil {
		return err
	}
	a.printTools(descriptors)
	return nil
}

func (a *App) printTools(descriptors []models.ToolDescriptor) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, d := range descriptors {
		types := "*"
		if !d.Multipurpose() {
			types = strings.Join(d.ProcessableTypes, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, types, d.BriefDescription)
	}
	_ = tw.Flush()
}

// process runs the whole dispatch exchange for one file and one tool.
func (a *App) process(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 2, "<uri> <tool>"); err != nil {
		return err
	}
	if a.creds.Email == "" || a.creds.Password == "" {
		return errNoCredentials
	}
	uri, toolName := args[0], args[1]

	contentType, _ := fs.GetString("type")
	if contentType == "" {
		contentType = utils.ContentTypeByName(uri)
	}

	conn, err := a.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err = conn.Authenticate(a.creds.Email, a.creds.Password); err != nil {
		return err
	}
	offered, err := conn.OfferFile(contentType, uri)
	if err != nil {
		return err
	}
	a.logger.Debug().Int("tools", len(offered)).Str("content_type", contentType).Msg("tools offered")

	out, err := conn.Process(toolName)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, out)
	return nil
}

func (a *App) submit(ctx context.Context, _ *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 2, "<uri> <tool>"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	msg, err := a.server.SubmitRequest(ctx, models.ProcessingRequest{FileURI: args[0], ToolName: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg.ID)
	return nil
}

func (a *App) nextCompletion(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	if err := exactArgs(args, 0, "no arguments"); err != nil {
		return err
	}
	if err := a.login(ctx); err != nil {
		return err
	}
	wait, _ := fs.GetDuration("wait")

	msg, ok, err := a.server.NextCompletion(ctx, wait)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "no completion within %s\n", wait.Round(time.Millisecond))
		return nil
	}
	if msg.Completed() {
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", msg.ID, msg.ToolName, msg.OutputURI)
		return nil
	}
	fmt.Fprintf(a.out, "%s\t%s\terror: %s\n", msg.ID, msg.ToolName, msg.Error)
	return nil
}
