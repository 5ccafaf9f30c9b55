package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhenriquez/parlid/internal/render"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "Inspect canonical persons",
}

var (
	personJSON  bool
	personLimit int
)

var personShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one person with identifiers and aliases",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonShow,
}

var personFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find persons by name or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonFind,
}

func init() {
	rootCmd.AddCommand(personCmd)
	personCmd.AddCommand(personShowCmd)
	personCmd.AddCommand(personFindCmd)

	personShowCmd.Flags().BoolVar(&personJSON, "json", false, "Output as JSON")
	personFindCmd.Flags().BoolVar(&personJSON, "json", false, "Output as JSON")
	personFindCmd.Flags().IntVar(&personLimit, "limit", 20, "Maximum results")
}

func runPersonShow(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	person, err := resolvePersonRef(st, args[0])
	if err != nil {
		return err
	}
	identifiers, err := st.Identifiers.ListByPerson(person.MPUID)
	if err != nil {
		return err
	}
	aliases, err := st.Aliases.ListByPerson(person.MPUID)
	if err != nil {
		return err
	}
	votes, err := st.Facts.CountVotesByPerson(person.MPUID)
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, render.Options{})
	if personJSON {
		return r.RenderJSON(map[string]interface{}{
			"person":      person,
			"identifiers": identifiers,
			"aliases":     aliases,
			"votes":       votes,
		})
	}

	fmt.Printf("%s  %s\n", person.ID, person.NombreCompleto)
	fmt.Printf("mp_uid:  %d\n", person.MPUID)
	fmt.Printf("uuid:    %s\n", person.UUID)
	printOptional := func(label string, v *string) {
		if s := deref(v); s != "" {
			fmt.Printf("%-8s %s\n", label+":", s)
		}
	}
	printOptional("genero", person.Genero)
	printOptional("nacido", person.FechaNacimiento)
	printOptional("lugar", person.LugarNacimiento)
	printOptional("prof", person.Profesion)
	fmt.Printf("votes:   %d\n", votes)

	if len(identifiers) > 0 {
		fmt.Println("\nidentifiers:")
		for _, ident := range identifiers {
			fmt.Printf("  %-8s %s\n", ident.Source, ident.SourceID)
		}
	}
	if len(aliases) > 0 {
		fmt.Println("\naliases:")
		for _, a := range aliases {
			fmt.Printf("  %s (%s)\n", a.Alias, a.Source)
		}
	}
	return nil
}

func runPersonFind(cmd *cobra.Command, args []string) error {
	_, database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	persons, err := st.Persons.Find(args[0], personLimit)
	if err != nil {
		return err
	}

	r := render.NewRenderer(os.Stdout, render.Options{})
	if personJSON {
		return r.RenderJSON(persons)
	}
	if len(persons) == 0 {
		fmt.Println("No persons found.")
		return nil
	}

	headers := []string{"ID", "NAME", "BORN", "PROFESSION"}
	rows := make([][]string, 0, len(persons))
	for _, p := range persons {
		rows = append(rows, []string{p.ID, p.NombreCompleto, deref(p.FechaNacimiento), deref(p.Profesion)})
	}
	return r.RenderTable(headers, rows)
}
