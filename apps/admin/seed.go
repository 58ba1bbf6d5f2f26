package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/volatiletech/null/v8"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

type (
	seedAccount struct {
		Email     string `yaml:"email"`
		Password  string `yaml:"password"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
	}

	seedInstructor struct {
		Account      seedAccount `yaml:",inline"`
		EmployeeCode string      `yaml:"employee_code"`
		Department   string      `yaml:"department"`
	}

	seedStudent struct {
		Account          seedAccount `yaml:",inline"`
		RegistrationCode string      `yaml:"registration_code"`
	}

	seedSubject struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		MaterialURL string   `yaml:"material_url"`
		Instructors []string `yaml:"instructors"` // emails
	}

	seedClassGroup struct {
		Name       string        `yaml:"name"`
		Schedule   string        `yaml:"schedule"`
		Instructor string        `yaml:"instructor"` // email, optional
		Students   []seedStudent `yaml:"students"`
	}

	seedCourse struct {
		Code        string           `yaml:"code"`
		Name        string           `yaml:"name"`
		Description string           `yaml:"description"`
		Credits     int              `yaml:"credits"`
		Instructor  string           `yaml:"instructor"` // email
		Subjects    []seedSubject    `yaml:"subjects"`
		ClassGroups []seedClassGroup `yaml:"class_groups"`
	}

	// fixtures describes a school to load in an empty database.
	fixtures struct {
		Administrator seedAccount      `yaml:"administrator"`
		Instructors   []seedInstructor `yaml:"instructors"`
		Courses       []seedCourse     `yaml:"courses"`
	}

	seedStats struct {
		instructors, courses, subjects, classGroups, students int
	}
)

func (sa seedAccount) newAccount() account.NewAccount {
	return account.NewAccount{Email: sa.Email, Password: sa.Password, FirstName: sa.FirstName, LastName: sa.LastName}
}

func (cli *commandLine) seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture (administrator, instructors, courses with subjects and class groups) in an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "reading fixtures")
			}
			var fx fixtures
			if err = yaml.Unmarshal(data, &fx); err != nil {
				return errors.Wrapf(err, "parsing %s", file)
			}

			stats, err := cli.seed(context.Background(), fx)
			if err != nil {
				return err
			}
			cmd.Printf(
				"seeded 1 administrator, %d instructors, %d courses, %d subjects, %d class groups, %d students\n",
				stats.instructors, stats.courses, stats.subjects, stats.classGroups, stats.students,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "The fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (cli *commandLine) seed(ctx context.Context, fx fixtures) (seedStats, error) {
	var stats seedStats

	adm, err := cli.svc.Bootstrap(ctx, academic.NewAdministrator{NewAccount: fx.Administrator.newAccount()})
	if err != nil {
		return stats, errors.Wrap(err, "creating administrator")
	}
	actor := academic.Actor{AccountID: adm.AccountID, Role: account.RoleAdministrator, Email: adm.Email}

	instructors := make(map[string]int, len(fx.Instructors)) // email: id
	instructorID := func(email string) (int, error) {
		id, ok := instructors[email]
		if !ok {
			return 0, fmt.Errorf("unknown instructor %q", email)
		}
		return id, nil
	}

	for _, si := range fx.Instructors {
		inst, err := cli.svc.CreateInstructor(ctx, actor, academic.NewInstructor{
			NewAccount:   si.Account.newAccount(),
			EmployeeCode: si.EmployeeCode,
			Department:   si.Department,
		})
		if err != nil {
			return stats, errors.Wrapf(err, "creating instructor %q", si.Account.Email)
		}
		instructors[inst.Email] = inst.ID
		stats.instructors++
	}

	for _, sc := range fx.Courses {
		respID, err := instructorID(sc.Instructor)
		if err != nil {
			return stats, errors.Wrapf(err, "course %q", sc.Code)
		}
		crs, err := cli.svc.CreateCourse(ctx, actor, academic.NewCourse{
			Code:         sc.Code,
			Name:         sc.Name,
			Description:  sc.Description,
			Credits:      sc.Credits,
			InstructorID: respID,
		})
		if err != nil {
			return stats, errors.Wrapf(err, "creating course %q", sc.Code)
		}
		stats.courses++

		for _, ss := range sc.Subjects {
			sbj, err := cli.svc.CreateSubject(ctx, actor, academic.NewSubject{
				CourseID:    crs.ID,
				Name:        ss.Name,
				Description: ss.Description,
				MaterialURL: ss.MaterialURL,
			})
			if err != nil {
				return stats, errors.Wrapf(err, "creating subject %q of %s", ss.Name, sc.Code)
			}
			stats.subjects++

			for _, email := range ss.Instructors {
				id, err := instructorID(email)
				if err != nil {
					return stats, errors.Wrapf(err, "subject %q of %s", ss.Name, sc.Code)
				}
				if _, err = cli.svc.AssignInstructor(ctx, actor, academic.NewAssignment{InstructorID: id, SubjectID: sbj.ID}); err != nil {
					return stats, errors.Wrapf(err, "assigning %q to subject %q", email, ss.Name)
				}
			}
		}

		for _, sg := range sc.ClassGroups {
			ng := academic.NewClassGroup{CourseID: crs.ID, Name: sg.Name, Schedule: sg.Schedule}
			if sg.Instructor != "" {
				id, err := instructorID(sg.Instructor)
				if err != nil {
					return stats, errors.Wrapf(err, "class group %q of %s", sg.Name, sc.Code)
				}
				ng.InstructorID = null.IntFrom(id)
			}
			grp, err := cli.svc.CreateClassGroup(ctx, actor, ng)
			if err != nil {
				return stats, errors.Wrapf(err, "creating class group %q of %s", sg.Name, sc.Code)
			}
			stats.classGroups++

			for _, st := range sg.Students {
				_, err := cli.svc.CreateStudent(ctx, actor, academic.NewStudent{
					NewAccount:       st.Account.newAccount(),
					RegistrationCode: st.RegistrationCode,
					ClassGroupID:     null.IntFrom(grp.ID),
				})
				if err != nil {
					return stats, errors.Wrapf(err, "creating student %q", st.Account.Email)
				}
				stats.students++
			}
		}
	}
	return stats, nil
}
