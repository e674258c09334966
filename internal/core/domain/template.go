package domain

import "sort"

// Template placeholder names.
const (
	PreludePlaceholder = "prelude"
	ScriptPlaceholder  = "script"
)

// Builtin template names.
const (
	TemplateFile      = "file"
	TemplateExpr      = "expr"
	TemplateLoop      = "loop"
	TemplateLoopCount = "loop-count"
)

// Template is a source skeleton the script body is rendered into.
type Template struct {
	Name    string
	Text    string
	Builtin bool
	// Path is the file the template was read from. Empty for builtins.
	Path string
}

// TemplateName returns the template a unit is rendered with.
func (u CompilationUnit) TemplateName() string {
	if u.Template != "" {
		return u.Template
	}
	switch u.Kind {
	case KindExpression:
		return TemplateExpr
	case KindFilter:
		if u.Count {
			return TemplateLoopCount
		}
		return TemplateLoop
	default:
		return TemplateFile
	}
}

// BuiltinTemplate returns the builtin template with the given name.
func BuiltinTemplate(name string) (Template, bool) {
	text, ok := builtinTemplates[name]
	if !ok {
		return Template{}, false
	}
	return Template{Name: name, Text: text, Builtin: true}, true
}

// BuiltinTemplateNames returns the names of all builtin templates in sorted order.
func BuiltinTemplateNames() []string {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtinTemplates = map[string]string{
	TemplateFile: "#{prelude}#{script}",

	TemplateExpr: `#{prelude}
use std::any::{Any, TypeId};

fn main() {
    let exit_code = match try_main() {
        Ok(()) => None,
        Err(e) => {
            use std::io::{self, Write};
            let _ = writeln!(io::stderr(), "Error: {}", e);
            Some(1)
        }
    };
    if let Some(exit_code) = exit_code {
        std::process::exit(exit_code);
    }
}

fn try_main() -> Result<(), Box<dyn std::error::Error>> {
    fn _rscript_is_empty_tuple<T: ?Sized + Any>(_s: &T) -> bool {
        TypeId::of::<()>() == TypeId::of::<T>()
    }
    match {#{script}} {
        __rscript_expr if !_rscript_is_empty_tuple(&__rscript_expr) => println!("{:?}", __rscript_expr),
        _ => {}
    }
    Ok(())
}
`,

	TemplateLoop: `#{prelude}
use std::any::Any;
use std::io::prelude::*;

fn main() {
    let mut line_buffer = String::new();
    let stdin = std::io::stdin();
    let mut closure = enforce_closure(
{#{script}}
    );
    loop {
        line_buffer.clear();
        let read_res = stdin.lock().read_line(&mut line_buffer).unwrap_or(0);
        if read_res == 0 { break }
        let output = closure(&line_buffer);

        let display = {
            let output_any: &dyn Any = &output;
            !output_any.is::<()>()
        };

        if display {
            println!("{:?}", output);
        }
    }
}

fn enforce_closure<F: FnMut(&str) -> T, T: 'static>(closure: F) -> F {
    closure
}
`,

	TemplateLoopCount: `#{prelude}
use std::any::Any;
use std::io::prelude::*;

fn main() {
    let mut line_buffer = String::new();
    let stdin = std::io::stdin();
    let mut count = 0;
    let mut closure = enforce_closure(
{#{script}}
    );
    loop {
        line_buffer.clear();
        let read_res = stdin.lock().read_line(&mut line_buffer).unwrap_or(0);
        if read_res == 0 { break }
        count += 1;
        let output = closure(&line_buffer, count);

        let display = {
            let output_any: &dyn Any = &output;
            !output_any.is::<()>()
        };

        if display {
            println!("{:?}", output);
        }
    }
}

fn enforce_closure<F: FnMut(&str, usize) -> T, T: 'static>(closure: F) -> F {
    closure
}
`,
}
