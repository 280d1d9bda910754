package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/coursehub/course-online-server/internal/client"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var errTeacherOnly = errors.New("this command is for teachers")

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if !term.IsTerminal(int(syscall.Stdin)) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(line), err
	}
	pwd, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(pwd), err
}

// guarded runs fn and routes auth failures through the session guard.
func guarded(get func() *client.Session, fn func(*cli.Context, *client.Session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s := get()
		return s.Guard(c.Context, fn(c, s))
	}
}

// teacherOnly applies the client-side teacher route guard before fn.
func teacherOnly(get func() *client.Session, fn func(*cli.Context, *client.Session) error) cli.ActionFunc {
	return guarded(get, func(c *cli.Context, s *client.Session) error {
		ok, err := s.CanActivateTeacher(c.Context)
		if err != nil {
			return err
		}
		if !ok {
			return errTeacherOnly
		}
		return fn(c, s)
	})
}

func commands(get func() *client.Session) []*cli.Command {
	idArg := func(c *cli.Context, name string) (int, error) {
		v := c.Int(name)
		if v <= 0 {
			return 0, fmt.Errorf("--%s is required", name)
		}
		return v, nil
	}

	return []*cli.Command{
		{
			Name:  "login",
			Usage: "sign in and store the credential",
			Flags: []cli.Flag{&cli.StringFlag{Name: "email", Required: true}},
			Action: func(c *cli.Context) error {
				pwd, err := readPasswordFunc("Password: ")
				if err != nil {
					return err
				}
				return get().Login(c.Context, c.String("email"), pwd)
			},
		},
		{
			Name:  "register",
			Usage: "create an account and sign in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "role", Value: string(model.RoleStudent), Usage: "student or teacher"},
			},
			Action: func(c *cli.Context) error {
				pwd, err := readPasswordFunc("Password: ")
				if err != nil {
					return err
				}
				return get().Register(c.Context, model.RegisterRequest{
					Name:     c.String("name"),
					Email:    c.String("email"),
					Password: pwd,
					Role:     model.Role(c.String("role")),
				})
			},
		},
		{
			Name:  "logout",
			Usage: "leave protected views and forget the credential",
			Action: func(c *cli.Context) error {
				return get().Logout(c.Context)
			},
		},
		{
			Name:  "whoami",
			Usage: "show the signed-in account",
			Action: guarded(get, func(c *cli.Context, s *client.Session) error {
				me, err := s.API().Me(c.Context)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\t%s\n", me.ID, me.Name, me.Email, me.Role)
				return nil
			}),
		},
		{
			Name:  "courses",
			Usage: "list courses",
			Flags: []cli.Flag{&cli.BoolFlag{Name: "mine", Usage: "only courses I am enrolled in"}},
			Action: guarded(get, func(c *cli.Context, s *client.Session) error {
				var (
					courses []model.Course
					err     error
				)
				if c.Bool("mine") {
					user := s.State().User
					if user == nil {
						return errors.New("not logged in")
					}
					courses, err = s.API().StudentCourses(c.Context, user.ID)
				} else {
					courses, err = s.API().ListCourses(c.Context)
				}
				if err != nil {
					return err
				}
				printCourses(c, courses)
				return nil
			}),
		},
		{
			Name:  "course",
			Usage: "manage one course",
			Subcommands: []*cli.Command{
				{
					Name:  "show",
					Flags: []cli.Flag{&cli.IntFlag{Name: "id"}},
					Action: guarded(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						course, err := s.API().GetCourse(c.Context, id)
						if err != nil {
							return err
						}
						lessons, err := s.API().ListLessons(c.Context, id)
						if err != nil {
							return err
						}
						printCourses(c, []model.Course{*course})
						for _, l := range lessons {
							fmt.Fprintf(c.App.Writer, "  lesson %d: %s\n", l.ID, l.Title)
						}
						return nil
					}),
				},
				{
					Name: "create",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "description"},
					},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						course, err := s.API().CreateCourse(c.Context, model.CourseRequest{
							Title: c.String("title"), Description: c.String("description"),
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "created course %d\n", course.ID)
						return nil
					}),
				},
				{
					Name: "update",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "id"},
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "description"},
					},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						_, err = s.API().UpdateCourse(c.Context, id, model.CourseRequest{
							Title: c.String("title"), Description: c.String("description"),
						})
						return err
					}),
				},
				{
					Name:  "delete",
					Flags: []cli.Flag{&cli.IntFlag{Name: "id"}},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						return s.API().DeleteCourse(c.Context, id)
					}),
				},
				{
					Name:  "enroll",
					Flags: []cli.Flag{&cli.IntFlag{Name: "id"}},
					Action: guarded(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						return s.API().Enroll(c.Context, id)
					}),
				},
				{
					Name:  "unenroll",
					Flags: []cli.Flag{&cli.IntFlag{Name: "id"}},
					Action: guarded(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						return s.API().Unenroll(c.Context, id)
					}),
				},
				{
					Name:  "watch",
					Usage: "print changes to a course as they happen",
					Flags: []cli.Flag{&cli.IntFlag{Name: "id"}},
					Action: guarded(get, func(c *cli.Context, s *client.Session) error {
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						events, err := s.API().Follow(c.Context, id)
						if err != nil {
							return err
						}
						for evt := range events {
							fmt.Fprintf(c.App.Writer, "%s\t%s\tlesson=%d\n",
								evt.Timestamp.Format("15:04:05"), evt.Type, evt.LessonID)
						}
						return nil
					}),
				},
			},
		},
		{
			Name:  "lesson",
			Usage: "manage lessons of a course you own",
			Subcommands: []*cli.Command{
				{
					Name: "create",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "course"},
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "content", Required: true},
					},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						courseID, err := idArg(c, "course")
						if err != nil {
							return err
						}
						lesson, err := s.API().CreateLesson(c.Context, courseID, model.LessonRequest{
							Title: c.String("title"), Content: c.String("content"),
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "created lesson %d\n", lesson.ID)
						return nil
					}),
				},
				{
					Name: "update",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "course"},
						&cli.IntFlag{Name: "id"},
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "content", Required: true},
					},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						courseID, err := idArg(c, "course")
						if err != nil {
							return err
						}
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						_, err = s.API().UpdateLesson(c.Context, courseID, id, model.LessonRequest{
							Title: c.String("title"), Content: c.String("content"),
						})
						return err
					}),
				},
				{
					Name: "delete",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "course"},
						&cli.IntFlag{Name: "id"},
					},
					Action: teacherOnly(get, func(c *cli.Context, s *client.Session) error {
						courseID, err := idArg(c, "course")
						if err != nil {
							return err
						}
						id, err := idArg(c, "id")
						if err != nil {
							return err
						}
						return s.API().DeleteLesson(c.Context, courseID, id)
					}),
				},
			},
		},
	}
}

func printCourses(c *cli.Context, courses []model.Course) {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTEACHER")
	for _, course := range courses {
		fmt.Fprintf(w, "%d\t%s\t%d\n", course.ID, course.Title, course.TeacherID)
	}
	_ = w.Flush()
}
