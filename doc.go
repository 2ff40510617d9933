// Package chassis instantiates a graph of named services from declarative
// descriptors. Every wire between services is spelled out in configuration
// with string markers; nothing is injected by type.
//
// # Overview
//
// A configuration maps service names to descriptors. A descriptor names a
// constructor by module and class, gives it positional and keyword
// arguments, and may add a factory method and post-construction calls:
//
//	services:
//	  store:
//	    module: storage
//	    class: Store
//	    args: ["$dsn"]
//	  users:
//	    module: app
//	    class: UserService
//	    kwargs:
//	      store: "@store"
//	    calls:
//	      - method: SetPageSize
//	        args: ["$page_size"]
//	parameters:
//	  dsn: postgres://localhost/app
//	  page_size: 50
//
// Strings starting with $ are replaced by entries of the scalar table;
// strings starting with @ are replaced by already instantiated services.
// Scalars are always substituted first, and a substituted value is never
// looked at again, so a scalar holding "@x" stays a plain string.
//
// # Catalog
//
// Go cannot import code by name at run time, so constructors are registered
// up front in a Catalog:
//
//	catalog := chassis.NewCatalog()
//	catalog.MustRegister("storage", "Store", storage.New)
//	catalog.MustRegister("app", "UserService", app.NewUserService,
//	    chassis.Params("store", "logger"),
//	    chassis.Defaults(map[string]any{"logger": nil}),
//	    chassis.MethodParams("SetPageSize", "size"))
//
// Params names the constructor's parameters so kwargs can bind to them. A
// final parameter of type Kwargs collects unmatched keywords, and a variadic
// final parameter collects surplus positional arguments. Constructors and
// methods may return (T), (T, error) or (error).
//
// # Resolution
//
//	resolver := chassis.NewResolver(catalog, cfg, scalars, chassis.WithLogger(logger))
//	registry, err := resolver.Resolve()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	users, err := chassis.Resolve[*app.UserService](registry, "users")
//
// Only constructor args and kwargs order instantiation. Resolve builds, round
// by round, every service whose dependencies are built, and fails with
// UnsatisfiableDependencyError when a round has nothing to build. The cycle
// detector is a separate, optional check:
//
//	if _, err := resolver.Validate(); chassis.IsCircularDependency(err) {
//	    log.Fatal(err)
//	}
//
// # Errors
//
// Every failure is a typed error matching one of the Err* sentinels through
// errors.Is, for example:
//
//	var cerr chassis.ConstructionError
//	if errors.As(err, &cerr) {
//	    log.Printf("%s failed in %s", cerr.Service, cerr.Stage)
//	}
//
// # Loading and inspection
//
// Package config reads YAML and HCL documents into a Config and a scalar
// table. The chassis command prints the dependency sets, tree, plan and
// Graphviz output of a configuration without building anything. The http,
// gin, echo and fiber modules attach a resolved Registry to requests.
package chassis
